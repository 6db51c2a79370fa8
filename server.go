package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"sttmcp/recorder"
	"sttmcp/transcriber"
)

const toolRecordAndTranscribe = "record_and_transcribe"

type serverConfig struct {
	DefaultDuration time.Duration
	MaxDuration     time.Duration
	DefaultLanguage string
}

func (c serverConfig) withDefaults() serverConfig {
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = 5 * time.Second
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 60 * time.Second
	}
	if c.DefaultLanguage == "" {
		c.DefaultLanguage = "en"
	}
	return c
}

// newServer wires the MCP server: identity, tools capability, and the one
// built-in tool. The request loop, request/response correlation and
// per-line error recovery all live in mcp-go.
func newServer(cfg serverConfig, rec *recorder.Recorder, eng transcriber.Transcriber) *server.MCPServer {
	cfg = cfg.withDefaults()

	s := server.NewMCPServer("stt-mcp", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Speech-to-text server. Use record_and_transcribe to capture audio from the microphone and get transcribed text."),
		server.WithRecovery(),
	)

	tool := mcp.NewTool(toolRecordAndTranscribe,
		mcp.WithDescription("Record audio from the microphone and transcribe it to text using Whisper. Returns the transcribed text."),
		mcp.WithNumber("duration_secs",
			mcp.Description(fmt.Sprintf("How many seconds to record (default: %g, max: %g)",
				cfg.DefaultDuration.Seconds(), cfg.MaxDuration.Seconds())),
			mcp.DefaultNumber(cfg.DefaultDuration.Seconds()),
		),
		mcp.WithString("language",
			mcp.Description(`Language hint for Whisper, e.g. "en", "es", "fr" (default: "en")`),
			mcp.DefaultString(cfg.DefaultLanguage),
		),
	)
	s.AddTool(tool, recordAndTranscribeHandler(cfg, rec, eng))

	return s
}

// recordAndTranscribeHandler validates arguments before anything touches
// the capture device, then runs a fresh recordingSession. Every failure
// class below startup comes back as a tool error; the session stays up.
func recordAndTranscribeHandler(cfg serverConfig, rec *recorder.Recorder, eng transcriber.Transcriber) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		durationSecs := req.GetFloat("duration_secs", cfg.DefaultDuration.Seconds())
		language := req.GetString("language", cfg.DefaultLanguage)

		if durationSecs <= 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid duration_secs %g: must be greater than zero", durationSecs)), nil
		}
		// Compare in the float domain: converting first would overflow
		// time.Duration for absurd values and slip past the ceiling.
		if durationSecs > cfg.MaxDuration.Seconds() {
			return mcp.NewToolResultError(fmt.Sprintf("invalid duration_secs %g: exceeds maximum of %g seconds", durationSecs, cfg.MaxDuration.Seconds())), nil
		}
		duration := time.Duration(durationSecs * float64(time.Second))
		if !validLanguage(language) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid language %q: expected a lowercase ISO 639 code like \"en\", or \"auto\"", language)), nil
		}

		sess := newRecordingSession(duration, language, rec, eng)
		text, err := sess.run(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	}
}

// validLanguage accepts what whisper does: a bare lowercase ISO 639-1/2
// code, or "auto" for detection.
func validLanguage(s string) bool {
	if s == "auto" {
		return true
	}
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, c := range s {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
