package transcriber

import (
	"context"
	"fmt"
	"sync"
)

// Fake is a Transcriber test double returning a fixed text or error and
// recording what it was asked to do.
type Fake struct {
	text string
	err  error

	mu       sync.Mutex
	calls    int
	language string
	samples  int
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Transcribe(_ context.Context, samples []float32, language string) (Result, error) {
	f.mu.Lock()
	f.calls++
	f.language = language
	f.samples = len(samples)
	f.mu.Unlock()

	if f.err != nil {
		return Result{}, fmt.Errorf("fake transcriber: %w", f.err)
	}
	segments := 0
	if f.text != "" {
		segments = 1
	}
	return Result{Text: f.text, Segments: segments}, nil
}

// Calls returns how many times Transcribe was invoked.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Language returns the hint passed to the most recent call.
func (f *Fake) Language() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.language
}

// Samples returns the sample count of the most recent call.
func (f *Fake) Samples() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samples
}
