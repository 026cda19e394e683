package inject

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"
)

// execInjector runs an external typing command (xdotool by default) with
// the text appended as the final argument.
type execInjector struct {
	cmd []string
}

func NewExec(command string) (Injector, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse inject command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("inject command is empty")
	}
	return &execInjector{cmd: args}, nil
}

func (e *execInjector) Type(ctx context.Context, text string) error {
	text = cleanText(text)
	if text == "" {
		return nil
	}

	args := append([]string{}, e.cmd[1:]...)
	args = append(args, text)
	command := exec.CommandContext(ctx, e.cmd[0], args...)
	var stderr bytes.Buffer
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrInjection, e.cmd[0], err, stderr.String())
	}
	return nil
}
