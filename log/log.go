// Package log is the process-wide diagnostic logger. Output goes to
// stderr or a file, never to stdout: stdout carries protocol bytes only.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	diagLog zerolog.Logger
	file    *os.File
	pid     int
)

func init() {
	pid = os.Getpid()
	diagLog = newLogger(os.Stderr)
}

func newLogger(out *os.File) zerolog.Logger {
	w := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	return zerolog.New(w).With().Timestamp().Int("pid", pid).Logger()
}

// ResolvePath picks the diagnostics sink: the -logpath flag wins, then
// STT_MCP_LOG_PATH, then empty (stderr).
func ResolvePath(flagPath string) (string, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("STT_MCP_LOG_PATH")
	}
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, path), nil
}

// Init redirects logging to the file at path, appending. An empty path
// keeps the stderr sink.
func Init(path string) error {
	if path == "" {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	file = f
	diagLog = newLogger(f)
	return nil
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
		diagLog = newLogger(os.Stderr)
	}
}

func Info(msg string) { diagLog.Info().Msg(msg) }

func Infof(format string, args ...any) { diagLog.Info().Msg(fmt.Sprintf(format, args...)) }

func Warn(msg string) { diagLog.Warn().Msg(msg) }

func Warnf(format string, args ...any) { diagLog.Warn().Msg(fmt.Sprintf(format, args...)) }

func Error(msg string) { diagLog.Error().Msg(msg) }

func Errorf(format string, args ...any) { diagLog.Error().Msg(fmt.Sprintf(format, args...)) }

// Capture logs one finished recording: how much audio arrived and in what
// shape.
func Capture(seconds float64, frames, rate, channels int) {
	diagLog.Info().
		Float64("audio_s", seconds).
		Int("frames", frames).
		Int("rate", rate).
		Int("channels", channels).
		Msg("capture")
}

// Inference logs one engine run.
func Inference(engine, language string, samples, segments int, elapsed time.Duration) {
	diagLog.Info().
		Str("engine", engine).
		Str("lang", language).
		Int("samples", samples).
		Int("segments", segments).
		Float64("infer_ms", float64(elapsed.Milliseconds())).
		Msg("inference")
}
