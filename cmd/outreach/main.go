package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/clearcrowds/reddit-outreach/internal/accounts"
	"github.com/clearcrowds/reddit-outreach/internal/config"
	"github.com/clearcrowds/reddit-outreach/internal/ledger"
	"github.com/clearcrowds/reddit-outreach/internal/llm"
	"github.com/clearcrowds/reddit-outreach/internal/model"
	"github.com/clearcrowds/reddit-outreach/internal/reddit"
	"github.com/clearcrowds/reddit-outreach/internal/scheduler"
	"github.com/clearcrowds/reddit-outreach/internal/service"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadAll()
	if err != nil {
		log.Fatal(err)
	}

	log.Printf("outreach starting (accounts=%d, commenting=%v, interval=%s)",
		len(cfg.Reddit.Accounts),
		cfg.Runner.CommentingEnabled,
		cfg.Runner.CommentInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("pgx", cfg.Database.PostgresURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	led := ledger.NewPostgresLedger(db)
	if err := led.Init(ctx); err != nil {
		log.Fatalf("ledger schema: %v", err)
	}

	rc := reddit.NewClient()
	pool := accounts.New(cfg.Reddit.Accounts, func(ctx context.Context, creds config.Credentials) (accounts.Session, error) {
		return rc.Authenticate(ctx, creds)
	})

	primary, err := pool.Primary(ctx)
	if err != nil {
		log.Fatalf("primary account auth: %v", err)
	}
	log.Printf("authenticated primary account %s", primary.Username())

	brain := llm.New(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	source := service.NewPostSource(
		primary,
		cfg.Search.Query,
		cfg.Search.Subreddits,
		reddit.TimeFilterForDays(cfg.Search.Days),
		cfg.Search.Limit,
	)
	orch := service.NewOrchestrator(pool, brain, led, cfg.Runner.CommentingEnabled, cfg.Runner.CommentInterval)

	runBatch := func(ctx context.Context) {
		posts := source.Fetch(ctx)
		if len(posts) == 0 {
			slog.Info("no posts to process")
			return
		}
		sum := orch.Run(ctx, posts)
		slog.Info("batch finished",
			"posted", sum.Posted,
			"disabled", sum.Disabled,
			"irrelevant", sum.Irrelevant,
			"own_post", sum.OwnPost,
			"failed", sum.Failed,
			"errored", sum.Errored,
			"skipped_flair", sum.SkippedFlair,
			"skipped_seen", sum.SkippedSeen,
		)
		logRecent(ctx, led)
	}

	if cfg.Runner.RunInterval > 0 {
		if err := scheduler.Loop(ctx, cfg.Runner.RunInterval, runBatch); err != nil {
			log.Fatal(err)
		}
		return
	}

	runBatch(ctx)
}

func logRecent(ctx context.Context, led ledger.Ledger) {
	recs, err := led.Recent(ctx, 5)
	if err != nil {
		slog.Warn("ledger read failed", "err", err)
		return
	}
	for _, r := range recs {
		attrs := []any{"post_id", r.PostID, "status", r.Status, "failures", r.FailureCount}
		if r.Status == model.CommentPosted {
			attrs = append(attrs, "account", r.Account)
		}
		slog.Info("recent interaction", attrs...)
	}
}
