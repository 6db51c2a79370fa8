package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

// stdioResponses runs the full protocol loop over the given input lines
// and decodes one envelope per emitted response line.
func stdioResponses(t *testing.T, input string, text string) []rpcEnvelope {
	t.Helper()
	s, _, _ := newTestServer(t, text, nil)

	var out bytes.Buffer
	if err := serveStdio(context.Background(), s, strings.NewReader(input), &out); err != nil {
		t.Fatalf("serveStdio: %v", err)
	}

	var envs []rpcEnvelope
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var env rpcEnvelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			t.Fatalf("decoding response line %q: %v", line, err)
		}
		envs = append(envs, env)
	}
	return envs
}

func TestServeStdioPreservesRequestOrder(t *testing.T) {
	// A slow capture call followed by a fast tools/list: the list response
	// must still come second.
	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"record_and_transcribe","arguments":{"duration_secs":0.2}}}` + "\n" +
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}` + "\n"

	envs := stdioResponses(t, input, "ordered")
	if len(envs) != 2 {
		t.Fatalf("got %d responses, want 2", len(envs))
	}
	for i, want := range []float64{1, 2} {
		if id, ok := envs[i].ID.(float64); !ok || id != want {
			t.Errorf("response %d id = %v, want %v", i, envs[i].ID, want)
		}
	}
}

func TestServeStdioMalformedLineDoesNotKillLoop(t *testing.T) {
	input := `{"jsonrpc":"2.0","id":` + "\n" +
		`{"jsonrpc":"2.0","id":3,"method":"tools/list"}` + "\n"

	envs := stdioResponses(t, input, "")
	if len(envs) != 2 {
		t.Fatalf("got %d responses, want 2 (parse error + list)", len(envs))
	}
	if envs[0].Error == nil {
		t.Error("expected an error response for the malformed line")
	}
	if envs[1].Error != nil {
		t.Errorf("tools/list after malformed line: %+v", envs[1].Error)
	}
	if id, ok := envs[1].ID.(float64); !ok || id != 3 {
		t.Errorf("tools/list id = %v, want 3", envs[1].ID)
	}
}

func TestServeStdioNotificationGetsNoResponse(t *testing.T) {
	input := `{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","id":4,"method":"tools/list"}` + "\n"

	envs := stdioResponses(t, input, "")
	if len(envs) != 1 {
		t.Fatalf("got %d responses, want 1", len(envs))
	}
	if id, ok := envs[0].ID.(float64); !ok || id != 4 {
		t.Errorf("response id = %v, want 4", envs[0].ID)
	}
}

func TestServeStdioCleanShutdownOnEOF(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		s, _, _ := newTestServer(t, "", nil)
		var out bytes.Buffer
		if err := serveStdio(context.Background(), s, strings.NewReader(""), &out); err != nil {
			t.Fatalf("serveStdio on empty input: %v", err)
		}
	})

	t.Run("final line without newline is still served", func(t *testing.T) {
		input := `{"jsonrpc":"2.0","id":5,"method":"tools/list"}` // no trailing \n
		envs := stdioResponses(t, input, "")
		if len(envs) != 1 {
			t.Fatalf("got %d responses, want 1", len(envs))
		}
		if id, ok := envs[0].ID.(float64); !ok || id != 5 {
			t.Errorf("response id = %v, want 5", envs[0].ID)
		}
	})
}
