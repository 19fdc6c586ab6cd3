package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bowerhall/fusemem/internal/archive"
	"github.com/bowerhall/fusemem/internal/fusion"
	"github.com/bowerhall/fusemem/internal/logger"
)

// candidateFile is the JSON shape external processors drop into the spool
// directory. Embedding may be omitted when text is present and an embedder
// is configured.
type candidateFile struct {
	Category   string         `json:"category"`
	Subject    string         `json:"subject"`
	Content    map[string]any `json:"content"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Confidence float64        `json:"confidence"`
	ValidFrom  *time.Time     `json:"valid_from,omitempty"`
	ValidUntil *time.Time     `json:"valid_until,omitempty"`
	Text       string         `json:"text,omitempty"`
}

type ingester struct {
	dir      string
	merger   *fusion.Merger
	embedder fusion.Embedder
	archive  *archive.Client
}

// run polls the spool directory until the context is cancelled.
func (in *ingester) run(ctx context.Context) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			in.sweep(ctx)
		}
	}
}

func (in *ingester) sweep(ctx context.Context) {
	entries, err := os.ReadDir(in.dir)
	if err != nil {
		logger.Error("spool read failed", "dir", in.dir, "error", err)
		return
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(in.dir, name)
		if err := in.ingestFile(ctx, path); err != nil {
			logger.Error("ingest failed", "file", name, "error", err)
			continue
		}
		os.Remove(path)
	}
}

func (in *ingester) ingestFile(ctx context.Context, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var cf candidateFile
	if err := json.Unmarshal(payload, &cf); err != nil {
		return err
	}

	candidate := &fusion.Record{
		Category:   fusion.Category(cf.Category),
		Subject:    cf.Subject,
		Content:    cf.Content,
		Embedding:  cf.Embedding,
		Confidence: cf.Confidence,
		ValidFrom:  cf.ValidFrom,
		ValidUntil: cf.ValidUntil,
		SourceRef:  uuid.NewString(),
	}
	if candidate.Content == nil {
		candidate.Content = map[string]any{}
	}

	if len(candidate.Embedding) == 0 && cf.Text != "" && in.embedder != nil {
		embedding, err := in.embedder.Embed(ctx, cf.Text)
		if err != nil {
			logger.Warn("embedding failed, merging without vector", "error", err)
		} else {
			candidate.Embedding = embedding
		}
	}

	if in.archive != nil {
		if err := in.archive.Store(ctx, candidate.SourceRef, payload); err != nil {
			// provenance loss is not worth dropping the observation
			logger.Warn("archive failed", "source_ref", candidate.SourceRef, "error", err)
		}
	}

	result, err := in.merger.Merge(ctx, candidate)
	if err != nil {
		return err
	}

	if result.Decision == fusion.DecisionDiscard {
		logger.Info("candidate discarded", "file", filepath.Base(path), "reason", result.Reason)
		return nil
	}

	logger.Info("candidate merged",
		"file", filepath.Base(path),
		"category", candidate.Category,
		"decision", result.Decision,
		"record", result.Record.ID)
	return nil
}
