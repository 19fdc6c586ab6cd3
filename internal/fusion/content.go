package fusion

import "time"

// Content field conventions shared with the external processors. The payload
// is opaque JSON; these accessors tolerate both native Go slices and the
// []any shapes a JSON round-trip produces.
const (
	fieldEntities       = "entities"
	fieldWindowStart    = "window_start"
	fieldWindowEnd      = "window_end"
	fieldConcept        = "concept"
	fieldEvidence       = "evidence"
	fieldGoal           = "goal"
	fieldSteps          = "steps"
	fieldStepEmbeddings = "step_embeddings"
)

func (r *Record) Entities() []string {
	return stringSlice(r.Content[fieldEntities])
}

func (r *Record) Concept() string {
	s, _ := r.Content[fieldConcept].(string)
	return s
}

func (r *Record) Evidence() []string {
	return stringSlice(r.Content[fieldEvidence])
}

func (r *Record) Goal() string {
	s, _ := r.Content[fieldGoal].(string)
	return s
}

func (r *Record) Steps() []string {
	return stringSlice(r.Content[fieldSteps])
}

func (r *Record) StepEmbeddings() [][]float32 {
	switch v := r.Content[fieldStepEmbeddings].(type) {
	case [][]float32:
		return v
	case []any:
		out := make([][]float32, 0, len(v))
		for _, e := range v {
			vec := floatSlice(e)
			if vec == nil {
				return nil
			}
			out = append(out, vec)
		}
		return out
	}
	return nil
}

// Window returns the record's time span. Validity columns win; the content
// window fields are the processor-facing fallback.
func (r *Record) Window() (TimeRange, bool) {
	if r.ValidFrom != nil && r.ValidUntil != nil {
		return TimeRange{Start: *r.ValidFrom, End: *r.ValidUntil}, true
	}
	start, okStart := timeField(r.Content[fieldWindowStart])
	end, okEnd := timeField(r.Content[fieldWindowEnd])
	if okStart && okEnd {
		return TimeRange{Start: start, End: end}, true
	}
	return TimeRange{}, false
}

// SetWindow writes the span to both the validity columns and the content
// fields so merged records stay queryable either way.
func (r *Record) SetWindow(w TimeRange) {
	start, end := w.Start, w.End
	r.ValidFrom = &start
	r.ValidUntil = &end
	if r.Content == nil {
		r.Content = map[string]any{}
	}
	r.Content[fieldWindowStart] = start.Format(time.RFC3339)
	r.Content[fieldWindowEnd] = end.Format(time.RFC3339)
}

// Expired reports whether the record's validity ended before now. Records
// without ValidUntil never expire.
func (r *Record) Expired(now time.Time) bool {
	return r.ValidUntil != nil && r.ValidUntil.Before(now)
}

func stringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func floatSlice(v any) []float32 {
	switch s := v.(type) {
	case []float32:
		return s
	case []any:
		out := make([]float32, 0, len(s))
		for _, e := range s {
			switch n := e.(type) {
			case float64:
				out = append(out, float32(n))
			case float32:
				out = append(out, n)
			default:
				return nil
			}
		}
		return out
	}
	return nil
}

func timeField(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}
