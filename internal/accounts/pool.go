package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clearcrowds/reddit-outreach/internal/config"
	"github.com/clearcrowds/reddit-outreach/internal/model"
)

// Session is what the pool hands out for one authenticated account.
// *reddit.Session implements it.
type Session interface {
	Username() string
	Search(ctx context.Context, query, subreddits, timeFilter string, limit int) ([]model.Post, error)
	Reply(ctx context.Context, postID, text string) error
}

// AuthFunc creates a session for one credential set.
type AuthFunc func(ctx context.Context, creds config.Credentials) (Session, error)

// Pool owns the ordered credential sets, the lazily-populated session cache
// and the rotating account pointer. Not safe for concurrent use; the
// workflow is single-threaded.
type Pool struct {
	creds    []config.Credentials
	auth     AuthFunc
	sessions []Session // indexed by account position, nil until first use
	ptr      int
}

func New(creds []config.Credentials, auth AuthFunc) *Pool {
	return &Pool{
		creds:    creds,
		auth:     auth,
		sessions: make([]Session, len(creds)),
	}
}

func (p *Pool) Size() int {
	return len(p.creds)
}

// Current is the index of the account that will perform the next comment.
func (p *Pool) Current() int {
	return p.ptr
}

// Advance moves the pointer to the next account, wrapping around. No-op on
// an empty pool.
func (p *Pool) Advance() {
	if len(p.creds) == 0 {
		return
	}
	p.ptr = (p.ptr + 1) % len(p.creds)
}

func (p *Pool) Usernames() []string {
	names := make([]string, len(p.creds))
	for i, c := range p.creds {
		names[i] = c.Username
	}
	return names
}

// Primary returns the session for account 0, the fixed search account.
// Failure here is fatal to the run: without it there is nothing to process.
func (p *Pool) Primary(ctx context.Context) (Session, error) {
	if len(p.creds) == 0 {
		return nil, errors.New("credential pool is empty")
	}
	return p.sessionAt(ctx, 0)
}

// SessionFor returns a cached session or creates one on demand. Creation
// failure is soft: it is logged and ok=false is returned, so one bad
// commenting account never halts the batch.
func (p *Pool) SessionFor(ctx context.Context, index int) (Session, bool) {
	sess, err := p.sessionAt(ctx, index)
	if err != nil {
		slog.Warn("account session unavailable", "index", index, "err", err)
		return nil, false
	}
	return sess, true
}

func (p *Pool) sessionAt(ctx context.Context, index int) (Session, error) {
	if index < 0 || index >= len(p.creds) {
		return nil, fmt.Errorf("account index %d out of range [0,%d)", index, len(p.creds))
	}
	if p.sessions[index] != nil {
		return p.sessions[index], nil
	}
	sess, err := p.auth(ctx, p.creds[index])
	if err != nil {
		return nil, err
	}
	p.sessions[index] = sess
	return sess, nil
}
