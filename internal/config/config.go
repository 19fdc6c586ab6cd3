package config

import (
	"os"
	"strconv"
	"time"
)

func Load() (*Config, error) {
	dbPath := os.Getenv("FUSEMEM_DB")
	if dbPath == "" {
		dbPath = "fusemem.db"
	}

	spoolPath := os.Getenv("FUSEMEM_SPOOL")
	if spoolPath == "" {
		spoolPath = "spool"
	}

	rulesPath := os.Getenv("FUSEMEM_RULES")

	pruneSchedule := os.Getenv("FUSEMEM_PRUNE_SCHEDULE")
	if pruneSchedule == "" {
		pruneSchedule = "0 3 * * *"
	}

	pruneMaxAge := 90 * 24 * time.Hour
	if v := os.Getenv("FUSEMEM_PRUNE_MAX_AGE_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			pruneMaxAge = time.Duration(days) * 24 * time.Hour
		}
	}

	return &Config{
		DBPath:        dbPath,
		SpoolPath:     spoolPath,
		RulesPath:     rulesPath,
		PruneSchedule: pruneSchedule,
		PruneMaxAge:   pruneMaxAge,
		Embedder:      loadEmbedderConfig(),
		Archive:       loadArchiveConfig(),
	}, nil
}

func loadEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{
		Provider: os.Getenv("EMBEDDER_PROVIDER"),
		BaseURL:  os.Getenv("EMBEDDER_BASE_URL"),
		Model:    os.Getenv("EMBEDDER_MODEL"),
	}
}

func loadArchiveConfig() ArchiveConfig {
	bucket := os.Getenv("ARCHIVE_BUCKET")
	if bucket == "" {
		bucket = "fusemem-observations"
	}

	return ArchiveConfig{
		Endpoint:  os.Getenv("ARCHIVE_ENDPOINT"),
		AccessKey: os.Getenv("ARCHIVE_ACCESS_KEY"),
		SecretKey: os.Getenv("ARCHIVE_SECRET_KEY"),
		UseSSL:    os.Getenv("ARCHIVE_USE_SSL") == "true",
		Bucket:    bucket,
	}
}
