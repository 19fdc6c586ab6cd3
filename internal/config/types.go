package config

import "time"

type Config struct {
	DBPath        string
	SpoolPath     string
	RulesPath     string
	PruneSchedule string
	PruneMaxAge   time.Duration
	Embedder      EmbedderConfig
	Archive       ArchiveConfig
}

type EmbedderConfig struct {
	Provider string
	BaseURL  string
	Model    string
}

type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}
