package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

func newTestOllama(t *testing.T, handler http.HandlerFunc) *OllamaService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOllamaService(srv.URL+"/", "mistral")
}

func TestOllamaGenerate(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
		wantErr  string
	}{
		{name: "success", status: http.StatusOK, body: `{"response":"Business","done":true}`, expected: "Business"},
		{name: "server error", status: http.StatusInternalServerError, body: `model not loaded`, wantErr: "ollama API error (500): model not loaded"},
		{name: "bad json", status: http.StatusOK, body: `{"response":`, wantErr: "failed to parse response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := make(chan ollamaRequest, 1)
			svc := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var req ollamaRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("invalid request body: %v", err)
				}
				requests <- req
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			answer, err := svc.Generate(context.Background(), "classify this")
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if answer != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, answer)
			}
			if got := <-requests; got.Model != "mistral" || got.Prompt != "classify this" || got.Stream {
				t.Errorf("unexpected request payload %+v", got)
			}
		})
	}
}

func TestOllamaGenerate_UsesCurrentSettings(t *testing.T) {
	models := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("invalid request body: %v", err)
		}
		models <- req.Model
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	current := "llama3"
	svc := NewOllamaServiceWithGetters(func() string { return srv.URL }, func() string { return current })

	current = "phi3"
	if _, err := svc.Generate(context.Background(), "hi"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if model := <-models; model != "phi3" {
		t.Errorf("expected model read at call time, got %q", model)
	}
}

func TestOllamaPing(t *testing.T) {
	up := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"models":[]}`))
	})
	if err := up.Ping(context.Background()); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	down := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if err := down.Ping(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}
