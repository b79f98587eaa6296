package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bili-notes/app/cfg"
)

func setupClientConfig(url string) {
	cfg.Set(&cfg.Cfg{
		LLMURL:    url,
		LLMAPIKey: "test-key",
		LLMModel:  "qwen-max",
	})
}

func TestClient_Run(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected bearer auth, got '%s'", r.Header.Get("Authorization"))
		}

		var payload generationRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if payload.Model != "qwen-max" {
			t.Errorf("Expected model 'qwen-max', got '%s'", payload.Model)
		}
		if len(payload.Input.Messages) != 2 || payload.Input.Messages[0].Role != "system" {
			t.Errorf("Expected system+user messages, got %+v", payload.Input.Messages)
		}

		w.Write([]byte(`{"output": {"text": "generated notes"}}`))
	}))
	defer server.Close()

	setupClientConfig(server.URL)

	client := NewClient(server.Client())
	text, err := client.Run(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if text != "generated notes" {
		t.Errorf("Expected 'generated notes', got '%s'", text)
	}
}

func TestClient_Run_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message": "rate limited"}`))
	}))
	defer server.Close()

	setupClientConfig(server.URL)

	client := NewClient(server.Client())
	_, err := client.Run(context.Background(), "s", "p")
	if err == nil {
		t.Fatal("Expected error for non-200 status")
	}

	var analysisErr *Error
	if !errors.As(err, &analysisErr) {
		t.Fatalf("Expected *Error, got %T", err)
	}
	if analysisErr.Kind != KindUpstream {
		t.Errorf("Expected kind 'upstream', got '%s'", analysisErr.Kind)
	}
}

func TestClient_Run_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"output": {"text": ""}}`))
	}))
	defer server.Close()

	setupClientConfig(server.URL)

	client := NewClient(server.Client())
	_, err := client.Run(context.Background(), "s", "p")

	var analysisErr *Error
	if !errors.As(err, &analysisErr) || analysisErr.Kind != KindEmpty {
		t.Errorf("Expected empty-kind error, got %v", err)
	}
}

func TestClient_Run_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force connection errors

	setupClientConfig(server.URL)

	client := NewClient(http.DefaultClient)
	_, err := client.Run(context.Background(), "s", "p")

	var analysisErr *Error
	if !errors.As(err, &analysisErr) || analysisErr.Kind != KindTransport {
		t.Errorf("Expected transport-kind error, got %v", err)
	}
}
