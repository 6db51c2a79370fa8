package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mark3labs/mcp-go/server"
)

// serveStdio runs the protocol loop: one JSON value per line on in, one
// response per line on out, and each request is answered before the next
// is read, so responses always follow request order and never interleave.
// mcp-go owns dispatch and per-message recovery; a malformed line yields
// an error response when an id is recoverable (or no response at all) and
// the loop continues either way. Returns nil when in reaches EOF.
func serveStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		line, readErr := reader.ReadString('\n')

		if trimmed := strings.TrimSpace(line); trimmed != "" {
			if msg := s.HandleMessage(ctx, json.RawMessage(trimmed)); msg != nil {
				data, err := json.Marshal(msg)
				if err != nil {
					return fmt.Errorf("marshaling response: %w", err)
				}
				if _, err := fmt.Fprintf(out, "%s\n", data); err != nil {
					return fmt.Errorf("writing response: %w", err)
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading request: %w", readErr)
		}
	}
}
