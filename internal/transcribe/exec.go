package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/murmurlabs/murmur/internal/config"
)

// execRecognizer shells out to an external transcription command. The
// waveform is written to a temporary WAV file; the command prints a JSON
// object {"text": ..., "confidence": ...} on stdout.
type execRecognizer struct {
	cmd []string
	cfg config.STTConfig
}

func NewExec(cfg config.STTConfig) (Recognizer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(cfg.Command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	return &execRecognizer{cmd: args, cfg: cfg}, nil
}

func (r *execRecognizer) Transcribe(ctx context.Context, samples []int16, sampleRate int) (Result, error) {
	file, err := os.CreateTemp("", "murmur_stt_*.wav")
	if err != nil {
		return Result{}, fmt.Errorf("%w: temp file: %v", ErrTranscription, err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := writeWAV(file, samples, sampleRate); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	base := r.cmd[0]
	cmdArgs := append([]string{}, r.cmd[1:]...)
	cmdArgs = append(cmdArgs, "--audio", file.Name())
	if r.cfg.ModelPath != "" {
		cmdArgs = append(cmdArgs, "--model", r.cfg.ModelPath)
	}
	if r.cfg.Language != "" {
		cmdArgs = append(cmdArgs, "--language", r.cfg.Language)
	}

	command := exec.CommandContext(ctx, base, cmdArgs...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return Result{}, fmt.Errorf("%w: stt command: %v: %s", ErrTranscription, err, stderr.String())
	}

	var result Result
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return Result{}, fmt.Errorf("%w: decode stt response: %v", ErrTranscription, err)
	}
	return result, nil
}

func (r *execRecognizer) Close() error { return nil }
