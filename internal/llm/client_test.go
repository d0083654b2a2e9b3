package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func completionServer(t *testing.T, reply string, capture *chatRequest) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path: %q", r.URL.Path)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("failed to decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClassify_RequestShape(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := completionServer(t, "relevant", &captured)

	c := New(srv.URL+"/v1", "sk-test", "test-model")

	raw, err := c.Classify(context.Background(), "Remove my ex", "Please edit him out of this photo.")
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if raw != "relevant" {
		t.Fatalf("unexpected raw verdict: %q", raw)
	}

	if captured.Model != "test-model" {
		t.Fatalf("unexpected model: %q", captured.Model)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", captured.Messages)
	}
	prompt := captured.Messages[0].Content
	if !strings.Contains(prompt, "Title: Remove my ex") {
		t.Fatalf("expected title in prompt, got: %q", prompt)
	}
	if !strings.Contains(prompt, "'relevant' or 'irrelevant'") {
		t.Fatalf("expected verdict instruction in prompt, got: %q", prompt)
	}
}

func TestGenerate_UsesPersonaPrompt(t *testing.T) {
	t.Parallel()

	var captured chatRequest
	srv := completionServer(t, "  I had a photo just like this and ClearCrowds fixed it.  ", &captured)

	c := New(srv.URL+"/v1/", "sk-test", "test-model")

	comment, err := c.Generate(context.Background(), "Fix colors?", "The photo is too dark.")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if comment != "I had a photo just like this and ClearCrowds fixed it." {
		t.Fatalf("expected trimmed comment, got: %q", comment)
	}

	prompt := captured.Messages[0].Content
	if !strings.Contains(prompt, "ClearCrowds") {
		t.Fatalf("expected persona app name in prompt, got: %q", prompt)
	}
	if !strings.Contains(prompt, "**Title:** Fix colors?") {
		t.Fatalf("expected post title in prompt, got: %q", prompt)
	}
}

func TestComplete_AuthHeader(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/v1", "sk-test", "m")

	if _, err := c.Classify(context.Background(), "t", "b"); err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected Authorization: %q", gotAuth)
	}
}

func TestComplete_Non200(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/v1", "sk-test", "m")

	_, err := c.Classify(context.Background(), "t", "b")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "HTTP 429") {
		t.Fatalf("expected status in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected body in error, got: %v", err)
	}
}

func TestComplete_NoChoices(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/v1", "sk-test", "m")

	_, err := c.Generate(context.Background(), "t", "b")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Fatalf("expected no-choices error, got: %v", err)
	}
}

func TestParseVerdict(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want bool
	}{
		{"relevant", true},
		{"Relevant", true},
		{"relevant.", true},
		{"'relevant'", true},
		{"Relevant. The user clearly needs editing help.", true},
		{"irrelevant", false},
		{"Irrelevant.", false},
		// The token must match exactly: "irrelevant" contains "relevant"
		// as a substring and must not be mistaken for it.
		{"IRRELEVANT - this is spam", false},
		{"", false},
		{"   ", false},
		{"maybe", false},
		{"the post is about cooking", false},
	}

	for _, tc := range cases {
		if got := ParseVerdict(tc.raw); got != tc.want {
			t.Fatalf("ParseVerdict(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
