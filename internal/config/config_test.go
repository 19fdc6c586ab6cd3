package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"FUSEMEM_DB", "FUSEMEM_SPOOL", "FUSEMEM_RULES",
		"FUSEMEM_PRUNE_SCHEDULE", "FUSEMEM_PRUNE_MAX_AGE_DAYS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DBPath != "fusemem.db" {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.SpoolPath != "spool" {
		t.Errorf("expected default spool path, got %q", cfg.SpoolPath)
	}
	if cfg.PruneSchedule != "0 3 * * *" {
		t.Errorf("expected default prune schedule, got %q", cfg.PruneSchedule)
	}
	if cfg.PruneMaxAge != 90*24*time.Hour {
		t.Errorf("expected 90 day retention, got %v", cfg.PruneMaxAge)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FUSEMEM_DB", "/data/fuse.db")
	t.Setenv("FUSEMEM_SPOOL", "/data/spool")
	t.Setenv("FUSEMEM_PRUNE_MAX_AGE_DAYS", "30")
	t.Setenv("EMBEDDER_PROVIDER", "ollama")
	t.Setenv("EMBEDDER_MODEL", "nomic-embed-text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.DBPath != "/data/fuse.db" {
		t.Errorf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.SpoolPath != "/data/spool" {
		t.Errorf("expected env spool path, got %q", cfg.SpoolPath)
	}
	if cfg.PruneMaxAge != 30*24*time.Hour {
		t.Errorf("expected 30 day retention, got %v", cfg.PruneMaxAge)
	}
	if cfg.Embedder.Provider != "ollama" || cfg.Embedder.Model != "nomic-embed-text" {
		t.Errorf("unexpected embedder config: %+v", cfg.Embedder)
	}
}

func TestLoadRulesEmptyPath(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("load rules failed: %v", err)
	}
	if rules.Similarity != 0.80 {
		t.Errorf("expected default similarity, got %f", rules.Similarity)
	}
	if rules.IntentTTL != 24*time.Hour {
		t.Errorf("expected default intent ttl, got %v", rules.IntentTTL)
	}
}

func TestLoadRulesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `similarity: 0.9
entity_overlap: 0.6
activity_window: 45m
intent_ttl: 12h
max_candidates: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write rules file failed: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load rules failed: %v", err)
	}
	if rules.Similarity != 0.9 {
		t.Errorf("expected similarity 0.9, got %f", rules.Similarity)
	}
	if rules.EntityOverlap != 0.6 {
		t.Errorf("expected entity overlap 0.6, got %f", rules.EntityOverlap)
	}
	if rules.ActivityWindow != 45*time.Minute {
		t.Errorf("expected 45m window, got %v", rules.ActivityWindow)
	}
	if rules.IntentTTL != 12*time.Hour {
		t.Errorf("expected 12h ttl, got %v", rules.IntentTTL)
	}
	if rules.MaxCandidates != 10 {
		t.Errorf("expected 10 candidates, got %d", rules.MaxCandidates)
	}
	// unset fields keep their defaults
	if rules.StepAlignment != 0.75 {
		t.Errorf("expected default step alignment, got %f", rules.StepAlignment)
	}
}

func TestLoadRulesBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("intent_ttl: never\n"), 0o644); err != nil {
		t.Fatalf("write rules file failed: %v", err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected error for unparseable duration")
	}
}
