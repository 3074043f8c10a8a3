package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return m.completeFn(ctx, prompt)
}

func replying(text string) *mockCompleter {
	return &mockCompleter{completeFn: func(context.Context, string) (string, error) { return text, nil }}
}

type weightsReply struct {
	Conservative map[string]int `json:"conservative"`
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":   `{"a":1}`,
		"```JSON {\"a\":1}```":      `{"a":1}`,
		"  ```\n{\"a\":1}\n```  \n": `{"a":1}`,
		"{\"a\":1}":                 `{"a":1}`,
		"\n {\"a\":1} \n":           `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripCodeFence(in); got != want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClient_Invoke(t *testing.T) {
	t.Run("decodes_fenced_json", func(t *testing.T) {
		c := NewClient(replying("```json\n{\"conservative\": {\"equities\": 100}}\n```"), 0)
		var out weightsReply
		if err := c.Invoke(context.Background(), "prompt", &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Conservative["equities"] != 100 {
			t.Errorf("expected equities=100, got %v", out.Conservative)
		}
	})

	t.Run("passes_prompt_through", func(t *testing.T) {
		var got string
		c := NewClient(&mockCompleter{completeFn: func(_ context.Context, prompt string) (string, error) {
			got = prompt
			return "{}", nil
		}}, 0)
		var out weightsReply
		if err := c.Invoke(context.Background(), "hello advisor", &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "hello advisor" {
			t.Errorf("expected prompt to be forwarded, got %q", got)
		}
	})

	malformed := map[string]string{
		"prose":         "Sure! Here is your portfolio.",
		"unknown_field": `{"conservative": {}, "notes": "x"}`,
		"trailing_data": `{"conservative": {}} {"again": true}`,
		"wrong_type":    `{"conservative": {"equities": "lots"}}`,
		"empty":         "```json\n```",
	}
	for name, reply := range malformed {
		t.Run("malformed_"+name, func(t *testing.T) {
			c := NewClient(replying(reply), 0)
			var out weightsReply
			err := c.Invoke(context.Background(), "prompt", &out)
			var mErr *MalformedResponseError
			if !errors.As(err, &mErr) {
				t.Fatalf("expected MalformedResponseError, got %v", err)
			}
			if mErr.Raw != reply {
				t.Errorf("expected raw reply to be kept, got %q", mErr.Raw)
			}
		})
	}

	t.Run("transport_error_is_unavailable", func(t *testing.T) {
		c := NewClient(&mockCompleter{completeFn: func(context.Context, string) (string, error) {
			return "", errors.New("connection refused")
		}}, 0)
		err := c.Invoke(context.Background(), "prompt", &weightsReply{})
		if !errors.Is(err, ErrServiceUnavailable) {
			t.Fatalf("expected ErrServiceUnavailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "connection refused") {
			t.Errorf("expected cause in error, got %v", err)
		}
	})

	t.Run("timeout_is_unavailable", func(t *testing.T) {
		c := NewClient(&mockCompleter{completeFn: func(ctx context.Context, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}}, 10*time.Millisecond)
		err := c.Invoke(context.Background(), "prompt", &weightsReply{})
		if !errors.Is(err, ErrServiceUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected unavailable deadline error, got %v", err)
		}
	})
}

func TestOpenAICompleter_Complete(t *testing.T) {
	t.Run("returns_first_choice", func(t *testing.T) {
		var gotBody map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/chat/completions" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test-key" {
				t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
			}
			_ = json.NewDecoder(r.Body).Decode(&gotBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
		}))
		defer srv.Close()

		c := NewOpenAICompleter(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", Model: "test-model"})
		got, err := c.Complete(context.Background(), "what should I buy?")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != `{"ok":true}` {
			t.Errorf("unexpected content %q", got)
		}
		if gotBody["model"] != "test-model" {
			t.Errorf("expected model test-model, got %v", gotBody["model"])
		}
		msgs, _ := gotBody["messages"].([]any)
		if len(msgs) != 1 {
			t.Fatalf("expected a single message, got %v", gotBody["messages"])
		}
		msg := msgs[0].(map[string]any)
		if msg["role"] != "user" || msg["content"] != "what should I buy?" {
			t.Errorf("unexpected message %v", msg)
		}
	})

	t.Run("no_choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
		}))
		defer srv.Close()

		c := NewOpenAICompleter(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
		if _, err := c.Complete(context.Background(), "p"); err == nil {
			t.Fatal("expected error for empty choices")
		}
	})

	t.Run("server_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
		}))
		defer srv.Close()

		c := NewOpenAICompleter(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
		if _, err := c.Complete(context.Background(), "p"); err == nil {
			t.Fatal("expected error for 500 response")
		}
	})
}
