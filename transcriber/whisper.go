package transcriber

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"sttmcp/log"
)

// Whisper runs local inference through the whisper.cpp bindings. The model
// is loaded once at construction and shared; a fresh decoding context is
// created per call, and a mutex keeps inference strictly serial (one model
// instance, one GPU/CPU pipeline).
type Whisper struct {
	model whisper.Model
	path  string

	mu sync.Mutex
}

// NewWhisper loads the model file at path. Errors here are startup
// failures: the server must not begin serving without a working engine.
func NewWhisper(path string) (*Whisper, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("whisper model %s: %w (set WHISPER_MODEL_PATH or -model)", path, err)
	}
	model, err := whisper.New(path)
	if err != nil {
		return nil, fmt.Errorf("loading whisper model %s: %w", path, err)
	}
	return &Whisper{model: model, path: path}, nil
}

func (w *Whisper) Name() string { return "whisper" }

func (w *Whisper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.model.Close()
}

// Transcribe runs a full greedy decode over the samples. Once inference
// starts it runs to completion; ctx is only consulted before the engine
// is invoked.
func (w *Whisper) Transcribe(ctx context.Context, samples []float32, language string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	wctx, err := w.model.NewContext()
	if err != nil {
		return Result{}, fmt.Errorf("%w: creating context: %v", ErrEngine, err)
	}

	if language != "" {
		if err := wctx.SetLanguage(language); err != nil {
			return Result{}, fmt.Errorf("%w: %q", ErrLanguage, language)
		}
	}
	wctx.SetTranslate(false)

	start := time.Now()
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	var sb strings.Builder
	segments := 0
	for {
		seg, err := wctx.NextSegment()
		if err != nil {
			break
		}
		sb.WriteString(seg.Text)
		segments++
	}

	text := strings.TrimSpace(sb.String())
	log.Inference(w.Name(), language, len(samples), segments, time.Since(start))
	return Result{Text: text, Segments: segments}, nil
}
