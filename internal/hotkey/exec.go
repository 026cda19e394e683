package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"

	shellwords "github.com/mattn/go-shellwords"
)

// ExecListener delegates key watching to an external command (for example a
// compositor keybind helper). The command is expected to block until the
// stop key fires and then exit 0; any exit sets the signal.
type ExecListener struct {
	command string
	signal  *Signal
	log     *slog.Logger
	cancel  context.CancelFunc
}

func NewExecListener(command string, signal *Signal, log *slog.Logger) *ExecListener {
	return &ExecListener{command: command, signal: signal, log: log}
}

func (e *ExecListener) Start(ctx context.Context) error {
	parser := shellwords.NewParser()
	args, err := parser.Parse(e.command)
	if err != nil {
		return fmt.Errorf("%w: parse watch command: %v", ErrListenerInit, err)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: watch command is empty", ErrListenerInit)
	}

	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: start watch command: %v", ErrListenerInit, err)
	}
	e.cancel = cancel

	go func() {
		err := cmd.Wait()
		if ctx.Err() != nil {
			// torn down by Stop, not a key press
			return
		}
		if err != nil {
			e.log.Warn("key watch command exited with error", slog.String("error", err.Error()))
		}
		e.log.Info("stop key pressed")
		e.signal.Cancel()
	}()

	e.log.Info("stop key watch started", slog.String("command", args[0]))
	return nil
}

func (e *ExecListener) Stop() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
}
