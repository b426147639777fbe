package provider

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

func TestOpenAITranslateSuccess(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Bonjour  \n"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini", Timeout: 2 * time.Second})
	out, err := c.Translate(context.Background(), "Hello", "fr")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if out != "Bonjour" {
		t.Fatalf("expected trimmed translation, got %q", out)
	}
	if got.Model != "gpt-4o-mini" || len(got.Messages) != 2 {
		t.Fatalf("unexpected request body: %+v", got)
	}
	if !strings.Contains(got.Messages[0].Content, "Preserve every markup") {
		t.Fatalf("system prompt must ask to preserve markup, got %q", got.Messages[0].Content)
	}
	if !strings.Contains(got.Messages[1].Content, "French (fr)") || !strings.HasSuffix(got.Messages[1].Content, "Hello") {
		t.Fatalf("unexpected user prompt %q", got.Messages[1].Content)
	}
}

func TestOpenAIMissingCredential(t *testing.T) {
	c := NewOpenAI(OpenAIConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Translate(context.Background(), "Hello", "fr")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected missing credential, got %v", err)
	}
}

func TestOpenAIUnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Translate(context.Background(), "Hello", "fr")
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("expected unexpected response, got %v", err)
	}
}

func TestOpenAIErrorStatusIsUnexpectedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := c.Translate(context.Background(), "Hello", "fr")
	if !errors.Is(err, ErrUnexpectedResponse) || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected unexpected response with status, got %v", err)
	}
}

func TestOpenAITransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Translate(context.Background(), "Hello", "fr")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if errors.Is(err, ErrUnexpectedResponse) {
		t.Fatalf("kinds must not match each other")
	}
}
