package fusion

import "strings"

// semanticStrategy deduplicates concepts: exact concept identity or a
// near-duplicate embedding folds into the existing record, unioning the
// supporting evidence.
type semanticStrategy struct {
	rules Rules
}

func (s *semanticStrategy) Key(candidate *Record) string {
	if concept := candidate.Concept(); concept != "" {
		return strings.ToLower(concept)
	}
	return candidate.Subject
}

func (s *semanticStrategy) Decide(candidate *Record, existing []*Record) (Decision, error) {
	concept := strings.ToLower(candidate.Concept())
	if concept == "" && len(candidate.Embedding) == 0 {
		return Decision{}, &StrategyError{Category: CategorySemantic, Detail: "missing concept and embedding"}
	}

	for _, e := range existing {
		if e.Retired {
			continue
		}

		match := concept != "" && strings.ToLower(e.Concept()) == concept
		if !match && len(candidate.Embedding) > 0 {
			match = Cosine(candidate.Embedding, e.Embedding) >= s.rules.Similarity
		}
		if !match {
			continue
		}

		merged := e.Clone()
		merged.Content[fieldEvidence] = unionStrings(e.Evidence(), candidate.Evidence())
		for k, v := range candidate.Content {
			if k == fieldEvidence {
				continue
			}
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
