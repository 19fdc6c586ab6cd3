// Package embedder provides the embedding collaborator the spool ingester
// uses for candidates that arrive without a vector.
package embedder

import (
	"fmt"

	"github.com/bowerhall/fusemem/internal/fusion"
)

type Config struct {
	Provider string
	BaseURL  string
	Model    string
}

func New(cfg Config) (fusion.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return newOllama(cfg.BaseURL, cfg.Model), nil
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedder provider: %s", cfg.Provider)
	}
}
