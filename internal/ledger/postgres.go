package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clearcrowds/reddit-outreach/internal/model"
)

type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Init creates the interactions table if it does not exist. Called once at
// startup; failure here is fatal to the run.
func (l *PostgresLedger) Init(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reddit_interactions (
			id SERIAL PRIMARY KEY,
			post_id VARCHAR(20) UNIQUE NOT NULL,
			subreddit VARCHAR(100) NOT NULL,
			post_title TEXT,
			post_content TEXT,
			post_url VARCHAR(512) NOT NULL,
			post_author VARCHAR(100),
			post_created_utc TIMESTAMP WITH TIME ZONE,
			post_flair VARCHAR(100),
			commenting_account VARCHAR(255),
			comment_failure_count INT NOT NULL DEFAULT 0,
			processed_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			is_relevant BOOLEAN,
			llm_analysis_raw TEXT,
			generated_comment TEXT,
			status VARCHAR(50) NOT NULL,
			error_message TEXT
		)
	`)
	return err
}

func (l *PostgresLedger) Upsert(ctx context.Context, rec model.InteractionRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO reddit_interactions (
			post_id, subreddit, post_title, post_content, post_url, post_author,
			post_created_utc, post_flair, commenting_account, is_relevant,
			llm_analysis_raw, generated_comment, status, error_message,
			comment_failure_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (post_id) DO UPDATE SET
			subreddit = EXCLUDED.subreddit,
			post_title = EXCLUDED.post_title,
			post_content = EXCLUDED.post_content,
			post_url = EXCLUDED.post_url,
			post_author = EXCLUDED.post_author,
			post_created_utc = EXCLUDED.post_created_utc,
			post_flair = EXCLUDED.post_flair,
			processed_at = CURRENT_TIMESTAMP,
			commenting_account = EXCLUDED.commenting_account,
			comment_failure_count = GREATEST(reddit_interactions.comment_failure_count, EXCLUDED.comment_failure_count),
			is_relevant = EXCLUDED.is_relevant,
			llm_analysis_raw = EXCLUDED.llm_analysis_raw,
			generated_comment = EXCLUDED.generated_comment,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message
	`,
		rec.PostID,
		rec.Subreddit,
		rec.Title,
		rec.Body,
		rec.URL,
		nullString(rec.Author),
		rec.PostCreatedAt,
		nullString(rec.Flair),
		nullString(rec.Account),
		nullBool(rec.Relevant),
		nullString(rec.AnalysisRaw),
		nullString(rec.Comment),
		string(rec.Status),
		nullString(rec.ErrorDetail),
		rec.FailureCount,
	)
	return err
}

func (l *PostgresLedger) StatusOf(ctx context.Context, postID string) (model.Status, int, error) {
	var (
		status   string
		failures int
	)
	err := l.db.QueryRowContext(ctx, `
		SELECT status, comment_failure_count
		FROM reddit_interactions
		WHERE post_id = $1
	`, postID).Scan(&status, &failures)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return model.Status(status), failures, nil
}

func (l *PostgresLedger) Recent(ctx context.Context, limit int) ([]model.InteractionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT post_id, subreddit, post_title, post_content, post_url, post_author,
		       post_created_utc, post_flair, commenting_account, comment_failure_count,
		       is_relevant, llm_analysis_raw, generated_comment, status, error_message,
		       processed_at
		FROM reddit_interactions
		ORDER BY processed_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.InteractionRecord
	for rows.Next() {
		var (
			rec       model.InteractionRecord
			status    string
			author    sql.NullString
			createdAt sql.NullTime
			flair     sql.NullString
			account   sql.NullString
			relevant  sql.NullBool
			analysis  sql.NullString
			comment   sql.NullString
			errDetail sql.NullString
		)
		if err := rows.Scan(
			&rec.PostID,
			&rec.Subreddit,
			&rec.Title,
			&rec.Body,
			&rec.URL,
			&author,
			&createdAt,
			&flair,
			&account,
			&rec.FailureCount,
			&relevant,
			&analysis,
			&comment,
			&status,
			&errDetail,
			&rec.ProcessedAt,
		); err != nil {
			return nil, err
		}

		rec.Status = model.Status(status)
		rec.Author = author.String
		rec.Flair = flair.String
		rec.Account = account.String
		rec.AnalysisRaw = analysis.String
		rec.Comment = comment.String
		rec.ErrorDetail = errDetail.String
		if createdAt.Valid {
			rec.PostCreatedAt = createdAt.Time
		}
		if relevant.Valid {
			b := relevant.Bool
			rec.Relevant = &b
		}

		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
