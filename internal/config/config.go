package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Reddit   RedditConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Search   SearchConfig
	Runner   RunnerConfig
}

// Credentials is one reddit account. Index 0 in the pool is the primary
// account, used for search.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserAgent    string
	Username     string
	Password     string
}

type RedditConfig struct {
	Accounts []Credentials
}

type DatabaseConfig struct {
	PostgresURL string
}

type LLMConfig struct {
	// BaseURL is the OpenAI-compatible API root including the /v1 segment,
	// e.g. https://openrouter.ai/api/v1.
	BaseURL string
	APIKey  string
	Model   string
}

type SearchConfig struct {
	Query      string
	Subreddits string // "+"-separated, e.g. "photoshoprequest+picrequests"
	Days       int
	Limit      int
}

type RunnerConfig struct {
	CommentingEnabled bool
	CommentInterval   time.Duration
	// RunInterval = 0 runs a single batch and exits; > 0 re-runs the whole
	// batch on that interval.
	RunInterval time.Duration
}

func LoadAll() (*Config, error) {
	accounts, err := loadAccounts()
	if err != nil {
		return nil, err
	}

	postgresURL, err := requireEnv("POSTGRES_URL")
	if err != nil {
		return nil, err
	}
	llmBaseURL, err := requireEnv("LLM_BASE_URL")
	if err != nil {
		return nil, err
	}
	llmAPIKey, err := requireEnv("LLM_API_KEY")
	if err != nil {
		return nil, err
	}
	llmModel, err := requireEnv("LLM_MODEL")
	if err != nil {
		return nil, err
	}
	query, err := requireEnv("SEARCH_QUERY")
	if err != nil {
		return nil, err
	}
	subreddits, err := requireEnv("SEARCH_SUBREDDITS")
	if err != nil {
		return nil, err
	}

	days, err := getEnvInt("SEARCH_DAYS", 7)
	if err != nil {
		return nil, err
	}
	limit, err := getEnvInt("SEARCH_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	commentInterval, err := getEnvInt("COMMENT_INTERVAL_SECONDS", 20)
	if err != nil {
		return nil, err
	}
	runInterval, err := getEnvInt("RUN_INTERVAL_SECONDS", 0)
	if err != nil {
		return nil, err
	}
	commenting, err := getEnvBool("COMMENTING_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Reddit:   RedditConfig{Accounts: accounts},
		Database: DatabaseConfig{PostgresURL: postgresURL},
		LLM: LLMConfig{
			BaseURL: llmBaseURL,
			APIKey:  llmAPIKey,
			Model:   llmModel,
		},
		Search: SearchConfig{
			Query:      query,
			Subreddits: subreddits,
			Days:       days,
			Limit:      limit,
		},
		Runner: RunnerConfig{
			CommentingEnabled: commenting,
			CommentInterval:   time.Duration(commentInterval) * time.Second,
			RunInterval:       time.Duration(runInterval) * time.Second,
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadAccounts() ([]Credentials, error) {
	lists := make(map[string][]string, 5)
	for _, key := range []string{
		"REDDIT_CLIENT_IDS",
		"REDDIT_CLIENT_SECRETS",
		"REDDIT_USER_AGENTS",
		"REDDIT_USERNAMES",
		"REDDIT_PASSWORDS",
	} {
		raw, err := requireEnv(key)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(raw, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
			if parts[i] == "" {
				return nil, fmt.Errorf("%s: element %d is empty", key, i)
			}
		}
		lists[key] = parts
	}

	n := len(lists["REDDIT_CLIENT_IDS"])
	for key, parts := range lists {
		if len(parts) != n {
			return nil, fmt.Errorf("%s has %d elements, REDDIT_CLIENT_IDS has %d; all credential lists must be the same length",
				key, len(parts), n)
		}
	}

	accounts := make([]Credentials, n)
	for i := 0; i < n; i++ {
		accounts[i] = Credentials{
			ClientID:     lists["REDDIT_CLIENT_IDS"][i],
			ClientSecret: lists["REDDIT_CLIENT_SECRETS"][i],
			UserAgent:    lists["REDDIT_USER_AGENTS"][i],
			Username:     lists["REDDIT_USERNAMES"][i],
			Password:     lists["REDDIT_PASSWORDS"][i],
		}
	}
	return accounts, nil
}

func validate(cfg *Config) error {
	if cfg.Search.Days <= 0 {
		return fmt.Errorf("SEARCH_DAYS must be > 0")
	}
	if cfg.Search.Limit <= 0 {
		return fmt.Errorf("SEARCH_LIMIT must be > 0")
	}
	if cfg.Runner.CommentInterval <= 0 {
		return fmt.Errorf("COMMENT_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Runner.RunInterval < 0 {
		return fmt.Errorf("RUN_INTERVAL_SECONDS must be >= 0")
	}
	return nil
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for env %s: %s", key, v)
	}
	return b, nil
}
