package fusion

import "time"

// intentStrategy refreshes open intents that are semantically close to the
// candidate. Expired or completed intents never merge; the candidate starts
// a fresh one.
type intentStrategy struct {
	rules Rules
	now   func() time.Time
}

func (s *intentStrategy) Key(candidate *Record) string {
	return candidate.Subject
}

func (s *intentStrategy) Decide(candidate *Record, existing []*Record) (Decision, error) {
	if candidate.Subject == "" {
		return Decision{}, &StrategyError{Category: CategoryIntent, Detail: "missing subject key"}
	}
	if len(candidate.Embedding) == 0 {
		return Decision{}, &StrategyError{Category: CategoryIntent, Detail: "missing embedding"}
	}

	now := s.now()

	for _, e := range existing {
		if e.Retired || e.Subject != candidate.Subject {
			continue
		}
		if e.Expired(now) {
			continue
		}

		if Cosine(candidate.Embedding, e.Embedding) >= s.rules.Similarity {
			merged := e.Clone()
			if candidate.Confidence > merged.Confidence {
				merged.Confidence = candidate.Confidence
			}
			merged.Embedding = candidate.Embedding

			// refresh the open window
			expiry := now.Add(s.rules.IntentTTL)
			if candidate.ValidUntil != nil && candidate.ValidUntil.After(expiry) {
				expiry = *candidate.ValidUntil
			}
			merged.ValidUntil = &expiry

			return MergeInto(e.ID, merged), nil
		}
	}

	return CreateNew(), nil
}
