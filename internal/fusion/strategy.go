package fusion

import "time"

// Strategy decides how a candidate relates to the existing records of its
// category. Strategies are pure: they never touch storage.
type Strategy interface {
	// Key derives the serialization/lookup key for a candidate. Merges on
	// the same (category, key) are serialized by the merger.
	Key(candidate *Record) string
	// Decide compares the candidate against existing records and returns a
	// merge decision. A StrategyError means the candidate is malformed for
	// this category and will be discarded with the error recorded.
	Decide(candidate *Record, existing []*Record) (Decision, error)
}

// Rules carries the injected tuning every strategy and heuristic reads.
// Threshold comparisons use >=, so a value exactly on a boundary merges.
type Rules struct {
	// Similarity is the cosine similarity floor for Intent and Semantic
	// matches.
	Similarity float64
	// EntityOverlap is the shared-entity ratio floor for Activity merges.
	EntityOverlap float64
	// ActivityWindow pads the storage lookup window around a candidate's
	// own time span.
	ActivityWindow time.Duration
	// IntentTTL is how long a refreshed intent stays open.
	IntentTTL time.Duration
	// StepAlignment is the ordered step similarity floor for Procedural
	// merges.
	StepAlignment float64
	// RelationRelevance is the similarity floor for heuristic edges.
	RelationRelevance float64
	// MaxCandidates bounds the comparison set fetched per merge.
	MaxCandidates int
}

func DefaultRules() Rules {
	return Rules{
		Similarity:        0.80,
		EntityOverlap:     0.50,
		ActivityWindow:    30 * time.Minute,
		IntentTTL:         24 * time.Hour,
		StepAlignment:     0.75,
		RelationRelevance: 0.70,
		MaxCandidates:     50,
	}
}

// Factory is the single category dispatch point. No other component
// branches on category identity.
type Factory struct {
	strategies map[Category]Strategy
}

func NewFactory(rules Rules) *Factory {
	f := &Factory{strategies: make(map[Category]Strategy, len(Categories))}
	f.Register(CategoryProfile, &profileStrategy{rules: rules})
	f.Register(CategoryActivity, &activityStrategy{rules: rules})
	f.Register(CategoryState, &stateStrategy{rules: rules})
	f.Register(CategoryIntent, &intentStrategy{rules: rules, now: time.Now})
	f.Register(CategorySemantic, &semanticStrategy{rules: rules})
	f.Register(CategoryProcedural, &proceduralStrategy{rules: rules})
	return f
}

// Register installs a strategy for a category. New categories are added
// here, never by modifying the merger.
func (f *Factory) Register(category Category, s Strategy) {
	f.strategies[category] = s
}

func (f *Factory) Resolve(category Category) (Strategy, error) {
	s, ok := f.strategies[category]
	if !ok {
		return nil, &UnknownCategoryError{Category: string(category)}
	}
	return s, nil
}
