package config

import (
	"strings"
	"sync"
	"testing"
	"time"
)

var envMu sync.Mutex

var allKeys = []string{
	"REDDIT_CLIENT_IDS",
	"REDDIT_CLIENT_SECRETS",
	"REDDIT_USER_AGENTS",
	"REDDIT_USERNAMES",
	"REDDIT_PASSWORDS",
	"POSTGRES_URL",
	"LLM_BASE_URL",
	"LLM_API_KEY",
	"LLM_MODEL",
	"SEARCH_QUERY",
	"SEARCH_SUBREDDITS",
	"SEARCH_DAYS",
	"SEARCH_LIMIT",
	"COMMENTING_ENABLED",
	"COMMENT_INTERVAL_SECONDS",
	"RUN_INTERVAL_SECONDS",
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REDDIT_CLIENT_IDS", "id1,id2")
	t.Setenv("REDDIT_CLIENT_SECRETS", "sec1,sec2")
	t.Setenv("REDDIT_USER_AGENTS", "ua1,ua2")
	t.Setenv("REDDIT_USERNAMES", "alice,bob")
	t.Setenv("REDDIT_PASSWORDS", "pw1,pw2")
	t.Setenv("POSTGRES_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
	t.Setenv("LLM_BASE_URL", "https://openrouter.ai/api/v1")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("LLM_MODEL", "meta-llama/llama-3-70b-instruct")
	t.Setenv("SEARCH_QUERY", "remove background OR fix photo")
	t.Setenv("SEARCH_SUBREDDITS", "photoshoprequest+picrequests")
}

func TestLoadAll_HappyPath_Defaults(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if len(cfg.Reddit.Accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(cfg.Reddit.Accounts))
	}
	if cfg.Reddit.Accounts[0].Username != "alice" || cfg.Reddit.Accounts[1].Username != "bob" {
		t.Fatalf("unexpected usernames: %+v", cfg.Reddit.Accounts)
	}
	if cfg.Reddit.Accounts[1].ClientSecret != "sec2" {
		t.Fatalf("unexpected second client secret: %q", cfg.Reddit.Accounts[1].ClientSecret)
	}
	if cfg.Search.Days != 7 {
		t.Fatalf("unexpected SEARCH_DAYS default: %d", cfg.Search.Days)
	}
	if cfg.Search.Limit != 20 {
		t.Fatalf("unexpected SEARCH_LIMIT default: %d", cfg.Search.Limit)
	}
	if cfg.Runner.CommentingEnabled {
		t.Fatalf("expected commenting disabled by default")
	}
	if cfg.Runner.CommentInterval != 20*time.Second {
		t.Fatalf("unexpected CommentInterval default: %v", cfg.Runner.CommentInterval)
	}
	if cfg.Runner.RunInterval != 0 {
		t.Fatalf("unexpected RunInterval default: %v", cfg.Runner.RunInterval)
	}
}

func TestLoadAll_Overrides(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	t.Setenv("SEARCH_DAYS", "1")
	t.Setenv("SEARCH_LIMIT", "50")
	t.Setenv("COMMENTING_ENABLED", "true")
	t.Setenv("COMMENT_INTERVAL_SECONDS", "5")
	t.Setenv("RUN_INTERVAL_SECONDS", "600")

	cfg, err := LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.Search.Days != 1 {
		t.Fatalf("unexpected SEARCH_DAYS: %d", cfg.Search.Days)
	}
	if cfg.Search.Limit != 50 {
		t.Fatalf("unexpected SEARCH_LIMIT: %d", cfg.Search.Limit)
	}
	if !cfg.Runner.CommentingEnabled {
		t.Fatalf("expected commenting enabled")
	}
	if cfg.Runner.CommentInterval != 5*time.Second {
		t.Fatalf("unexpected CommentInterval: %v", cfg.Runner.CommentInterval)
	}
	if cfg.Runner.RunInterval != 600*time.Second {
		t.Fatalf("unexpected RunInterval: %v", cfg.Runner.RunInterval)
	}
}

func TestLoadAll_RequiredEnvMissing(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	required := []string{
		"REDDIT_CLIENT_IDS",
		"REDDIT_CLIENT_SECRETS",
		"REDDIT_USER_AGENTS",
		"REDDIT_USERNAMES",
		"REDDIT_PASSWORDS",
		"POSTGRES_URL",
		"LLM_BASE_URL",
		"LLM_API_KEY",
		"LLM_MODEL",
		"SEARCH_QUERY",
		"SEARCH_SUBREDDITS",
	}

	for _, key := range required {
		key := key
		t.Run("missing "+key, func(t *testing.T) {
			clearTestEnv(t)
			setRequired(t)
			t.Setenv(key, "")

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error mentioning %s, got: %v", key, err)
			}
		})
	}
}

func TestLoadAll_MismatchedCredentialLists(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	t.Setenv("REDDIT_PASSWORDS", "pw1,pw2,pw3")

	_, err := LoadAll()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "REDDIT_PASSWORDS") {
		t.Fatalf("expected error mentioning REDDIT_PASSWORDS, got: %v", err)
	}
	if !strings.Contains(err.Error(), "same length") {
		t.Fatalf("expected length-mismatch error, got: %v", err)
	}
}

func TestLoadAll_EmptyCredentialElement(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	t.Setenv("REDDIT_USERNAMES", "alice,")

	_, err := LoadAll()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "REDDIT_USERNAMES") {
		t.Fatalf("expected error mentioning REDDIT_USERNAMES, got: %v", err)
	}
}

func TestLoadAll_InvalidValues(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"invalid SEARCH_DAYS", "SEARCH_DAYS", "abc"},
		{"invalid SEARCH_LIMIT", "SEARCH_LIMIT", "x"},
		{"invalid COMMENT_INTERVAL_SECONDS", "COMMENT_INTERVAL_SECONDS", "nope"},
		{"invalid RUN_INTERVAL_SECONDS", "RUN_INTERVAL_SECONDS", "bad"},
		{"invalid COMMENTING_ENABLED", "COMMENTING_ENABLED", "maybe"},
		{"zero SEARCH_LIMIT", "SEARCH_LIMIT", "0"},
		{"zero COMMENT_INTERVAL_SECONDS", "COMMENT_INTERVAL_SECONDS", "0"},
		{"negative RUN_INTERVAL_SECONDS", "RUN_INTERVAL_SECONDS", "-1"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)
			setRequired(t)
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll()
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}
