package ledger

import (
	"context"

	"github.com/clearcrowds/reddit-outreach/internal/model"
)

type Ledger interface {
	// Upsert persists one interaction record by post ID. Re-writing an
	// existing post replaces every field except the failure counter, which
	// never decreases.
	Upsert(ctx context.Context, rec model.InteractionRecord) error

	// StatusOf returns the stored status and failure count for a post, or
	// ("", 0, nil) when the post has never been seen.
	StatusOf(ctx context.Context, postID string) (model.Status, int, error)

	// Recent returns the latest records by processing time, for operator
	// inspection.
	Recent(ctx context.Context, limit int) ([]model.InteractionRecord, error)
}
