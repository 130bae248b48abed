package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docqa-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient("test-key", "test-model")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.baseURL = server.URL
	return client
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	resp := map[string]any{
		"id":    "chatcmpl-1",
		"model": "test-model",
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		t.Fatalf("encode reply: %v", err)
	}
}

func TestSummarizeReturnsContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header")
		}
		chatReply(t, w, "a short summary")
	})

	got, err := client.Summarize(context.Background(), "long document text")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "a short summary" {
		t.Fatalf("summary = %q", got)
	}
}

func TestAnswerSendsSummaryAndQuestion(t *testing.T) {
	var gotBody chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		chatReply(t, w, "the answer")
	})

	got, err := client.Answer(context.Background(), "summary text", "what about it?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got != "the answer" {
		t.Fatalf("answer = %q", got)
	}
	if len(gotBody.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(gotBody.Messages))
	}
}

func TestRateLimitIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Summarize(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if !llm.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestBadRequestIsPermanent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Summarize(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
	if llm.IsTransient(err) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestServerErrorIsTransient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Answer(context.Background(), "s", "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !llm.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
