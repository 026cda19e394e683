package inject

import (
	"context"
	"errors"
	"testing"

	"github.com/murmurlabs/murmur/internal/config"
)

func TestNewModeDispatch(t *testing.T) {
	if _, err := New(config.InjectConfig{Mode: "exec", Command: "xdotool type --delay 1"}); err != nil {
		t.Fatalf("exec injector: %v", err)
	}
	if _, err := New(config.InjectConfig{Mode: "clipboard"}); err != nil {
		t.Fatalf("clipboard injector: %v", err)
	}
	if _, err := New(config.InjectConfig{Mode: "mock"}); err != nil {
		t.Fatalf("mock injector: %v", err)
	}
	if _, err := New(config.InjectConfig{Mode: "telepathy"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		"hello world":         "hello world",
		"line one\nline two":  "line one line two",
		"\ntrailing newline\n": "trailing newline",
		"  padded  ":          "padded",
	}
	for in, want := range cases {
		if got := cleanText(in); got != want {
			t.Fatalf("cleanText(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewExecRejectsBadCommand(t *testing.T) {
	if _, err := NewExec(""); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := NewExec("xdotool 'unterminated"); err == nil {
		t.Fatal("expected error for unparsable command")
	}
}

func TestExecMissingBinary(t *testing.T) {
	inj, err := NewExec("murmur-no-such-typer")
	if err != nil {
		t.Fatalf("new exec: %v", err)
	}
	err = inj.Type(context.Background(), "hello")
	if !errors.Is(err, ErrInjection) {
		t.Fatalf("expected injection error, got %v", err)
	}
}

func TestExecSkipsEmptyText(t *testing.T) {
	// the command is never run for empty or whitespace-only text
	inj, err := NewExec("murmur-no-such-typer")
	if err != nil {
		t.Fatalf("new exec: %v", err)
	}
	if err := inj.Type(context.Background(), "  \n "); err != nil {
		t.Fatalf("empty text must be a no-op, got %v", err)
	}
}

func TestExecRunsCommand(t *testing.T) {
	inj, err := NewExec("true")
	if err != nil {
		t.Fatalf("new exec: %v", err)
	}
	if err := inj.Type(context.Background(), "hello world"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestMockRecordsText(t *testing.T) {
	m := &Mock{}
	if err := m.Type(context.Background(), "one"); err != nil {
		t.Fatalf("type: %v", err)
	}
	if err := m.Type(context.Background(), "two"); err != nil {
		t.Fatalf("type: %v", err)
	}
	if len(m.Typed) != 2 || m.Typed[0] != "one" || m.Typed[1] != "two" {
		t.Fatalf("unexpected recorded text: %v", m.Typed)
	}

	m.Err = ErrInjection
	if err := m.Type(context.Background(), "three"); !errors.Is(err, ErrInjection) {
		t.Fatalf("expected injected error, got %v", err)
	}
}
