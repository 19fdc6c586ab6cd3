package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bowerhall/fusemem/internal/fusion"
)

// rulesFile is the YAML shape of the tuning file. Durations are Go duration
// strings ("30m", "24h"). Zero values fall back to the code defaults.
type rulesFile struct {
	Similarity        float64 `yaml:"similarity"`
	EntityOverlap     float64 `yaml:"entity_overlap"`
	ActivityWindow    string  `yaml:"activity_window"`
	IntentTTL         string  `yaml:"intent_ttl"`
	StepAlignment     float64 `yaml:"step_alignment"`
	RelationRelevance float64 `yaml:"relation_relevance"`
	MaxCandidates     int     `yaml:"max_candidates"`
}

// LoadRules reads strategy tuning from a YAML file. An empty path returns
// the defaults.
func LoadRules(path string) (fusion.Rules, error) {
	rules := fusion.DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return rules, fmt.Errorf("parse rules file: %w", err)
	}

	if file.Similarity > 0 {
		rules.Similarity = file.Similarity
	}
	if file.EntityOverlap > 0 {
		rules.EntityOverlap = file.EntityOverlap
	}
	if file.StepAlignment > 0 {
		rules.StepAlignment = file.StepAlignment
	}
	if file.RelationRelevance > 0 {
		rules.RelationRelevance = file.RelationRelevance
	}
	if file.MaxCandidates > 0 {
		rules.MaxCandidates = file.MaxCandidates
	}

	if file.ActivityWindow != "" {
		d, err := time.ParseDuration(file.ActivityWindow)
		if err != nil {
			return rules, fmt.Errorf("parse activity_window: %w", err)
		}
		rules.ActivityWindow = d
	}
	if file.IntentTTL != "" {
		d, err := time.ParseDuration(file.IntentTTL)
		if err != nil {
			return rules, fmt.Errorf("parse intent_ttl: %w", err)
		}
		rules.IntentTTL = d
	}

	return rules, nil
}
