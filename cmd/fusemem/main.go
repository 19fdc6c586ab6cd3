package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/bowerhall/fusemem/internal/archive"
	"github.com/bowerhall/fusemem/internal/config"
	"github.com/bowerhall/fusemem/internal/embedder"
	"github.com/bowerhall/fusemem/internal/fusion"
	"github.com/bowerhall/fusemem/internal/logger"
	"github.com/bowerhall/fusemem/internal/store"
)

func init() {
	godotenv.Load()
}

// slogSink forwards merge events to the structured log.
type slogSink struct{}

func (slogSink) RecordMerge(category fusion.Category, decision fusion.DecisionKind, elapsed time.Duration) {
	logger.Debug("merge", "category", category, "decision", decision, "elapsed", elapsed)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", "error", err)
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		logger.Fatal("failed to load rules", "error", err)
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open store", "path", cfg.DBPath, "error", err)
	}
	defer db.Close()

	emb, err := embedder.New(embedder.Config{
		Provider: cfg.Embedder.Provider,
		BaseURL:  cfg.Embedder.BaseURL,
		Model:    cfg.Embedder.Model,
	})
	if err != nil {
		logger.Fatal("failed to create embedder", "error", err)
	}

	arc, err := archive.New(archive.Config{
		Endpoint:  cfg.Archive.Endpoint,
		AccessKey: cfg.Archive.AccessKey,
		SecretKey: cfg.Archive.SecretKey,
		UseSSL:    cfg.Archive.UseSSL,
		Bucket:    cfg.Archive.Bucket,
	})
	if err != nil {
		logger.Fatal("failed to create archive client", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if arc != nil {
		if err := arc.Init(ctx); err != nil {
			logger.Fatal("failed to init archive", "error", err)
		}
	}

	factory := fusion.NewFactory(rules)
	relations := fusion.NewRelations(db, rules)
	merger := fusion.NewMerger(db, factory, relations, rules, fusion.WithMetrics(slogSink{}))

	if err := os.MkdirAll(cfg.SpoolPath, 0o755); err != nil {
		logger.Fatal("failed to create spool dir", "path", cfg.SpoolPath, "error", err)
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.PruneSchedule, func() {
		pruned, err := db.Prune(store.PruneConfig{MaxAge: cfg.PruneMaxAge})
		if err != nil {
			logger.Error("prune failed", "error", err)
			return
		}
		if pruned > 0 {
			logger.Info("retired records pruned", "count", pruned)
		}
	})
	if err != nil {
		logger.Fatal("invalid prune schedule", "schedule", cfg.PruneSchedule, "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	in := &ingester{
		dir:      cfg.SpoolPath,
		merger:   merger,
		embedder: emb,
		archive:  arc,
	}
	go in.run(ctx)

	logger.Info("fusemem running", "db", cfg.DBPath, "spool", cfg.SpoolPath)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
}
