package fusion

// proceduralStrategy aligns ordered step sequences. High alignment merges
// the step graphs; low alignment with a shared goal links the records; no
// relation creates a new procedure.
type proceduralStrategy struct {
	rules Rules
}

func (s *proceduralStrategy) Key(candidate *Record) string {
	if goal := candidate.Goal(); goal != "" {
		return goal
	}
	return candidate.Subject
}

func (s *proceduralStrategy) Decide(candidate *Record, existing []*Record) (Decision, error) {
	steps := candidate.Steps()
	if len(steps) == 0 {
		return Decision{}, &StrategyError{Category: CategoryProcedural, Detail: "missing steps"}
	}

	for _, e := range existing {
		if e.Retired {
			continue
		}

		score := s.alignment(candidate, e)
		if score >= s.rules.StepAlignment {
			return MergeInto(e.ID, s.combine(e, candidate)), nil
		}

		if candidate.Goal() != "" && candidate.Goal() == e.Goal() {
			return LinkOnly(e.ID), nil
		}
	}

	return CreateNew(), nil
}

func (s *proceduralStrategy) alignment(a, b *Record) float64 {
	av, bv := a.StepEmbeddings(), b.StepEmbeddings()
	if len(av) > 0 && len(bv) > 0 {
		return AlignStepVectors(av, bv)
	}
	return AlignStepText(a.Steps(), b.Steps())
}

func (s *proceduralStrategy) combine(existing, candidate *Record) *Record {
	merged := existing.Clone()
	merged.Content[fieldSteps] = unionStrings(existing.Steps(), candidate.Steps())
	// step embeddings no longer line up with the merged sequence
	delete(merged.Content, fieldStepEmbeddings)

	for k, v := range candidate.Content {
		if k == fieldSteps || k == fieldStepEmbeddings {
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

	return merged
}
