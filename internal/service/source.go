package service

import (
	"context"
	"log/slog"

	"github.com/clearcrowds/reddit-outreach/internal/model"
)

// Searcher is the platform search capability. The primary account's session
// implements it.
type Searcher interface {
	Search(ctx context.Context, query, subreddits, timeFilter string, limit int) ([]model.Post, error)
}

// PostSource wraps search for one configured query. A search failure is
// logged and yields an empty batch; the orchestrator treats "no posts" the
// same either way.
type PostSource struct {
	session    Searcher
	query      string
	subreddits string
	timeFilter string
	limit      int
}

func NewPostSource(session Searcher, query, subreddits, timeFilter string, limit int) *PostSource {
	return &PostSource{
		session:    session,
		query:      query,
		subreddits: subreddits,
		timeFilter: timeFilter,
		limit:      limit,
	}
}

func (s *PostSource) Fetch(ctx context.Context) []model.Post {
	slog.Info("searching posts",
		"query", s.query,
		"subreddits", s.subreddits,
		"time_filter", s.timeFilter,
		"limit", s.limit,
	)
	posts, err := s.session.Search(ctx, s.query, s.subreddits, s.timeFilter, s.limit)
	if err != nil {
		slog.Warn("search failed, continuing with empty batch", "err", err)
		return nil
	}
	slog.Info("search finished", "posts", len(posts))
	return posts
}
