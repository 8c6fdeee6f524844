package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/prospector/internal/faults"
)

func TestNewChatClientValidation(t *testing.T) {
	if _, err := NewChatClient(ChatConfig{Service: "research", BaseURL: "http://x", Model: "m"}); err == nil {
		t.Fatalf("expected error when api key is missing")
	}
	if _, err := NewChatClient(ChatConfig{Service: "research", APIKey: "k", Model: "m"}); err == nil {
		t.Fatalf("expected error when base url is missing")
	}
	if _, err := NewChatClient(ChatConfig{Service: "research", APIKey: "k", BaseURL: "http://x"}); err == nil {
		t.Fatalf("expected error when model is missing")
	}
}

func TestCompleteSuccess(t *testing.T) {
	var captured struct {
		Authorization string
		Body          map[string]any
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.Authorization = r.Header.Get("Authorization")
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&captured.Body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "  Expo One,https://expo.example,9.1,Strong fit  "}},
			},
		})
	}))
	defer srv.Close()

	client, err := NewChatClient(ChatConfig{Service: "research", APIKey: "test", BaseURL: srv.URL, Model: "sonar", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	got, err := client.Complete(context.Background(), Request{System: "be terse", Prompt: "list expos"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "Expo One,https://expo.example,9.1,Strong fit" {
		t.Fatalf("unexpected content: %q", got)
	}
	if !strings.HasPrefix(captured.Authorization, "Bearer ") {
		t.Fatalf("authorization header missing: %q", captured.Authorization)
	}
	if captured.Body["model"] != "sonar" {
		t.Fatalf("model field missing in request: %+v", captured.Body)
	}
	msgs := captured.Body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(msgs))
	}
}

func TestCompleteHTTPErrorIsServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewChatClient(ChatConfig{Service: "writer", APIKey: "test", BaseURL: srv.URL, Model: "m", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Complete(context.Background(), Request{Prompt: "x"})
	if err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
	if !faults.IsService(err) {
		t.Fatalf("expected ServiceError, got %T: %v", err, err)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client, err := NewChatClient(ChatConfig{Service: "research", APIKey: "test", BaseURL: srv.URL, Model: "m", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{Prompt: "x"}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}
