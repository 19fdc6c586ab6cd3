package fusion

import "reflect"

// stateStrategy treats states as mutually exclusive over time: a new state
// for a subject supersedes the current one. Resubmitting the identical
// state degrades to a touch so retries stay idempotent.
type stateStrategy struct {
	rules Rules
}

func (s *stateStrategy) Key(candidate *Record) string {
	return candidate.Subject
}

func (s *stateStrategy) Decide(candidate *Record, existing []*Record) (Decision, error) {
	if candidate.Subject == "" {
		return Decision{}, &StrategyError{Category: CategoryState, Detail: "missing subject key"}
	}

	for _, e := range existing {
		if e.Retired || !e.Current || e.Subject != candidate.Subject {
			continue
		}

		if sameContent(e.Content, candidate.Content) {
			merged := e.Clone()
			if candidate.Confidence > merged.Confidence {
				merged.Confidence = candidate.Confidence
			}
			return MergeInto(e.ID, merged), nil
		}

		return Supersede(e.ID), nil
	}

	return CreateNew(), nil
}

func sameContent(a, b map[string]any) bool {
	return reflect.DeepEqual(a, b)
}
