package fusion

// profileStrategy merges on stable subject identity: newer fields overwrite
// older ones, confidence takes the max.
type profileStrategy struct {
	rules Rules
}

func (s *profileStrategy) Key(candidate *Record) string {
	return candidate.Subject
}

func (s *profileStrategy) Decide(candidate *Record, existing []*Record) (Decision, error) {
	if candidate.Subject == "" {
		return Decision{}, &StrategyError{Category: CategoryProfile, Detail: "missing subject identity"}
	}

	for _, e := range existing {
		if e.Retired || e.Subject != candidate.Subject {
			continue
		}

		merged := e.Clone()
		for k, v := range candidate.Content {
			merged.Content[k] = v
		}
		if candidate.Confidence > merged.Confidence {
			merged.Confidence = candidate.Confidence
		}
		if len(candidate.Embedding) > 0 {
			merged.Embedding = candidate.Embedding
		}

		return MergeInto(e.ID, merged), nil
	}

	return CreateNew(), nil
}
