package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/clearcrowds/reddit-outreach/internal/accounts"
	"github.com/clearcrowds/reddit-outreach/internal/ledger"
	"github.com/clearcrowds/reddit-outreach/internal/llm"
	"github.com/clearcrowds/reddit-outreach/internal/model"
)

// Brain classifies a post's relevance and drafts the promotional comment.
// *llm.Client implements it.
type Brain interface {
	Classify(ctx context.Context, title, body string) (string, error)
	Generate(ctx context.Context, title, body string) (string, error)
}

// statusNone marks a post the dedup gate skipped without processing; nothing
// is written for it but the account pointer still advances.
const statusNone = model.Status("")

// Summary counts per-outcome results for one batch.
type Summary struct {
	Posted       int
	Disabled     int
	Irrelevant   int
	OwnPost      int
	Failed       int
	Errored      int
	SkippedFlair int
	SkippedSeen  int
}

// Orchestrator runs the per-post workflow: gates, classification, comment
// generation, posting via the rotating account, ledger write, pacing.
type Orchestrator struct {
	pool              *accounts.Pool
	brain             Brain
	ledger            ledger.Ledger
	commentingEnabled bool
	pacing            time.Duration

	sleep func(ctx context.Context, d time.Duration)
}

func NewOrchestrator(pool *accounts.Pool, brain Brain, led ledger.Ledger, commentingEnabled bool, pacing time.Duration) *Orchestrator {
	return &Orchestrator{
		pool:              pool,
		brain:             brain,
		ledger:            led,
		commentingEnabled: commentingEnabled,
		pacing:            pacing,
		sleep:             sleepCtx,
	}
}

// WithSleep replaces the pacing sleep. Test hook.
func (o *Orchestrator) WithSleep(fn func(ctx context.Context, d time.Duration)) *Orchestrator {
	o.sleep = fn
	return o
}

// Run processes the batch sequentially, in fetch order. Each post's full
// pipeline completes before the next begins.
func (o *Orchestrator) Run(ctx context.Context, posts []model.Post) Summary {
	var sum Summary
	for i, p := range posts {
		if ctx.Err() != nil {
			slog.Info("run interrupted", "remaining", len(posts)-i)
			break
		}

		// Flair gate: before any ledger or pointer interaction.
		if flairSolved(p.Flair) {
			slog.Info("skipping solved post", "post_id", p.ID, "flair", p.Flair)
			sum.SkippedFlair++
			continue
		}

		status := o.process(ctx, p)
		o.pool.Advance()
		sum.add(status)

		if status == model.CommentPosted && i < len(posts)-1 {
			slog.Info("pacing before next comment", "interval", o.pacing.String())
			o.sleep(ctx, o.pacing)
		}
	}
	return sum
}

// process runs the state machine for one post and returns its final status,
// or statusNone when the dedup gate skipped it.
func (o *Orchestrator) process(ctx context.Context, p model.Post) model.Status {
	prevStatus, failures, err := o.ledger.StatusOf(ctx, p.ID)
	if err != nil {
		// Soft failure: a broken ledger read must not stop the batch.
		slog.Warn("ledger read failed, treating post as unseen", "post_id", p.ID, "err", err)
		prevStatus, failures = "", 0
	}
	if prevStatus == model.CommentPosted {
		slog.Info("already commented, skipping", "post_id", p.ID)
		return statusNone
	}
	if failures >= model.MaxFailures {
		slog.Info("failure cap reached, skipping permanently", "post_id", p.ID, "failures", failures)
		return statusNone
	}

	rec := model.InteractionRecord{
		PostID:        p.ID,
		Subreddit:     p.Subreddit,
		Title:         p.Title,
		Body:          p.Body,
		URL:           p.URL(),
		Author:        p.Author,
		PostCreatedAt: p.CreatedAt,
		Flair:         p.Flair,
		FailureCount:  failures,
		Status:        model.Processing,
	}

	// The write happens on every exit path below except the irrelevance
	// branch, which the reference deliberately never persists.
	persist := true
	defer func() {
		if !persist {
			return
		}
		if err := o.ledger.Upsert(ctx, rec); err != nil {
			slog.Warn("ledger write failed", "post_id", p.ID, "status", rec.Status, "err", err)
		}
	}()

	if o.isOwnPost(p.Author) {
		slog.Info("skipping own post", "post_id", p.ID, "author", p.Author)
		rec.Status = model.SkippedOwnPost
		return rec.Status
	}

	raw, err := o.brain.Classify(ctx, p.Title, p.Body)
	if err != nil {
		return o.fail(&rec, model.Error, fmt.Errorf("classify: %w", err))
	}
	rec.AnalysisRaw = raw

	relevant := llm.ParseVerdict(raw)
	rec.Relevant = &relevant
	if !relevant {
		slog.Info("post classified irrelevant", "post_id", p.ID)
		rec.Status = model.SkippedIrrelevant
		persist = false
		return rec.Status
	}

	comment, err := o.brain.Generate(ctx, p.Title, p.Body)
	if err != nil {
		return o.fail(&rec, model.Error, fmt.Errorf("generate: %w", err))
	}
	rec.Comment = comment

	if !o.commentingEnabled {
		slog.Info("commenting disabled, dry run", "post_id", p.ID)
		rec.Status = model.CommentDisabled
		return rec.Status
	}

	idx := o.pool.Current()
	sess, ok := o.pool.SessionFor(ctx, idx)
	if !ok {
		return o.fail(&rec, model.CommentFailed, fmt.Errorf("account %d unavailable", idx))
	}
	rec.Account = sess.Username()

	if err := sess.Reply(ctx, p.ID, comment); err != nil {
		return o.fail(&rec, model.CommentFailed, err)
	}

	slog.Info("comment posted", "post_id", p.ID, "account", rec.Account)
	rec.Status = model.CommentPosted
	return rec.Status
}

func (o *Orchestrator) fail(rec *model.InteractionRecord, status model.Status, err error) model.Status {
	slog.Warn("post attempt failed", "post_id", rec.PostID, "status", status, "err", err)
	rec.Status = status
	rec.FailureCount++
	rec.ErrorDetail = err.Error()
	return status
}

func (o *Orchestrator) isOwnPost(author string) bool {
	for _, name := range o.pool.Usernames() {
		if strings.EqualFold(author, name) {
			return true
		}
	}
	return false
}

func (s *Summary) add(status model.Status) {
	switch status {
	case model.CommentPosted:
		s.Posted++
	case model.CommentDisabled:
		s.Disabled++
	case model.SkippedIrrelevant:
		s.Irrelevant++
	case model.SkippedOwnPost:
		s.OwnPost++
	case model.CommentFailed:
		s.Failed++
	case model.Error:
		s.Errored++
	case statusNone:
		s.SkippedSeen++
	}
}

func flairSolved(flair string) bool {
	return strings.Contains(strings.ToLower(flair), "solved")
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
