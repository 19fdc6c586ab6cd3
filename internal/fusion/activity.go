package fusion

// activityStrategy merges candidates whose time windows overlap and whose
// entity sets share at least the configured ratio. Merging extends the
// window and unions the entities.
type activityStrategy struct {
	rules Rules
}

func (s *activityStrategy) Key(candidate *Record) string {
	return candidate.Subject
}

func (s *activityStrategy) Decide(candidate *Record, existing []*Record) (Decision, error) {
	window, ok := candidate.Window()
	if !ok {
		return Decision{}, &StrategyError{Category: CategoryActivity, Detail: "missing time window"}
	}

	entities := candidate.Entities()

	for _, e := range existing {
		if e.Retired {
			continue
		}

		eWindow, ok := e.Window()
		if !ok || !window.Overlaps(eWindow) {
			continue
		}

		// >= so a ratio exactly on the threshold still merges
		if OverlapRatio(entities, e.Entities()) >= s.rules.EntityOverlap {
			return MergeInto(e.ID, s.combine(e, candidate, window, eWindow)), nil
		}
	}

	return CreateNew(), nil
}

func (s *activityStrategy) combine(existing, candidate *Record, cw, ew TimeRange) *Record {
	merged := existing.Clone()

	span := ew
	if cw.Start.Before(span.Start) {
		span.Start = cw.Start
	}
	if cw.End.After(span.End) {
		span.End = cw.End
	}
	merged.SetWindow(span)

	merged.Content[fieldEntities] = unionStrings(existing.Entities(), candidate.Entities())
	for k, v := range candidate.Content {
		if k == fieldEntities || k == fieldWindowStart || k == fieldWindowEnd {
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

// unionStrings keeps first-seen order and drops duplicates.
func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
