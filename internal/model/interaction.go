package model

import "time"

type Status string

const (
	// Processing is set when an attempt begins and is always overwritten
	// before the attempt ends; it never survives as a final state.
	Processing        Status = "PROCESSING"
	CommentPosted     Status = "COMMENT_POSTED"
	SkippedIrrelevant Status = "SKIPPED_IRRELEVANT"
	SkippedOwnPost    Status = "SKIPPED_OWN_POST"
	CommentDisabled   Status = "COMMENT_DISABLED"
	CommentFailed     Status = "COMMENT_FAILED"
	Error             Status = "ERROR"
)

// MaxFailures is the per-post circuit breaker: once a post has failed this
// many times it is skipped permanently on every later run.
const MaxFailures = 3

// Post is a single reddit submission as returned by search. Read-only.
type Post struct {
	ID        string
	Subreddit string
	Title     string
	Body      string
	Permalink string
	Author    string
	Flair     string
	CreatedAt time.Time
}

func (p Post) URL() string {
	return "https://www.reddit.com" + p.Permalink
}

// InteractionRecord is one ledger row, keyed by post ID. Re-processing the
// same post replaces every field except FailureCount, which never decreases.
type InteractionRecord struct {
	PostID        string
	Subreddit     string
	Title         string
	Body          string
	URL           string
	Author        string
	PostCreatedAt time.Time
	Flair         string
	Account       string
	FailureCount  int
	Relevant      *bool
	AnalysisRaw   string
	Comment       string
	Status        Status
	ErrorDetail   string
	ProcessedAt   time.Time
}
