package transcribe

import (
	"context"
	"fmt"
)

type mockRecognizer struct{}

func NewMock() Recognizer {
	return &mockRecognizer{}
}

func (m *mockRecognizer) Transcribe(_ context.Context, samples []int16, _ int) (Result, error) {
	return Result{
		Text:       fmt.Sprintf("[transcript samples=%d]", len(samples)),
		Confidence: 0,
	}, nil
}

func (m *mockRecognizer) Close() error { return nil }
