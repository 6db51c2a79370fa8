// Package transcriber adapts speech-to-text engines behind a small
// interface: engine-ready samples in, text out.
package transcriber

import (
	"context"
	"errors"
)

var (
	// ErrLanguage means the engine rejected the language hint.
	ErrLanguage = errors.New("unsupported language")
	// ErrEngine covers engine-internal failures.
	ErrEngine = errors.New("transcription engine failure")
)

// Result is the outcome of one transcription. Text is empty when the
// engine heard nothing it could decode; that is a valid result, not an
// error.
type Result struct {
	Text     string
	Segments int
}

// Transcriber converts mono 16 kHz float32 samples to text. Implementations
// must be safe for concurrent use; a single engine instance is shared by
// the whole process.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, samples []float32, language string) (Result, error)
}
