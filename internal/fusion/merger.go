package fusion

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bowerhall/fusemem/internal/logger"
)

// Merger is the sole entry point for record ingestion: it fetches the
// comparison set, delegates to the category's strategy, applies the
// decision against storage, and triggers relationship maintenance.
type Merger struct {
	storage   Storage
	factory   *Factory
	relations *Relations
	rules     Rules
	metrics   MetricsSink
	locks     *keyLocks

	maxAttempts int
	backoff     time.Duration
	lockWait    time.Duration
	now         func() time.Time
}

type Option func(*Merger)

// WithMetrics injects the per-merge event sink. Absent sink is a no-op.
func WithMetrics(sink MetricsSink) Option {
	return func(m *Merger) { m.metrics = sink }
}

// WithRetry tunes the transient-failure retry policy.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(m *Merger) {
		if attempts > 0 {
			m.maxAttempts = attempts
		}
		if backoff > 0 {
			m.backoff = backoff
		}
	}
}

// WithLockWait tunes the per-key contention budget.
func WithLockWait(wait time.Duration) Option {
	return func(m *Merger) {
		if wait > 0 {
			m.lockWait = wait
		}
	}
}

func NewMerger(storage Storage, factory *Factory, relations *Relations, rules Rules, opts ...Option) *Merger {
	m := &Merger{
		storage:     storage,
		factory:     factory,
		relations:   relations,
		rules:       rules,
		locks:       newKeyLocks(),
		maxAttempts: 3,
		backoff:     50 * time.Millisecond,
		lockWait:    5 * time.Second,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge fuses one candidate into the knowledge base. Re-merging an identical
// candidate after a completed merge reaches the same stored state.
func (m *Merger) Merge(ctx context.Context, candidate *Record) (*MergeResult, error) {
	start := m.now()

	result, err := m.merge(ctx, candidate)

	if m.metrics != nil {
		decision := DecisionFailed
		category := Category("")
		if candidate != nil {
			category = candidate.Category
		}
		if result != nil {
			decision = result.Decision
		}
		m.metrics.RecordMerge(category, decision, time.Since(start))
	}

	return result, err
}

func (m *Merger) merge(ctx context.Context, candidate *Record) (*MergeResult, error) {
	if err := validate(candidate); err != nil {
		return nil, err
	}

	// assign the ID up front so every retry of a partially applied
	// decision converges on the same stored record
	if candidate.ID == "" {
		candidate.ID = uuid.NewString()
	}

	strategy, err := m.factory.Resolve(candidate.Category)
	if err != nil {
		return nil, err
	}

	key := strategy.Key(candidate)
	lockKey := string(candidate.Category) + "/" + key
	if !m.locks.acquire(lockKey, m.lockWait) {
		return nil, &ConflictError{Category: candidate.Category, Key: key}
	}
	defer m.locks.release(lockKey)

	var result *MergeResult
	for attempt := 0; ; attempt++ {
		result, err = m.mergeOnce(ctx, strategy, candidate, key)
		if err == nil || !IsTransient(err) || attempt+1 >= m.maxAttempts {
			break
		}
		logger.Warn("transient storage failure, retrying",
			"category", candidate.Category, "key", key, "attempt", attempt+1, "error", err)
		select {
		case <-time.After(m.backoff << attempt):
		case <-ctx.Done():
			return nil, &TransientStorageError{Op: "merge", Err: ctx.Err()}
		}
	}

	if err != nil {
		var strategyErr *StrategyError
		if errors.As(err, &strategyErr) {
			// malformed candidate: discard with the error recorded
			logger.Error("candidate discarded", "category", candidate.Category, "key", key, "error", err)
			return &MergeResult{Decision: DecisionDiscard, Reason: strategyErr.Error()}, nil
		}
		return nil, err
	}

	return result, nil
}

func validate(candidate *Record) error {
	if candidate == nil {
		return &ValidationError{Field: "candidate", Detail: "nil candidate"}
	}
	if !candidate.Category.Valid() {
		return &ValidationError{Field: "category", Detail: "unknown category: " + string(candidate.Category)}
	}
	if candidate.Confidence < 0 || candidate.Confidence > 1 {
		return &ValidationError{Field: "confidence", Detail: "confidence outside [0,1]"}
	}
	return nil
}

func (m *Merger) mergeOnce(ctx context.Context, strategy Strategy, candidate *Record, key string) (*MergeResult, error) {
	existing, err := m.storage.Query(ctx, candidate.Category, key, m.lookupWindow(candidate))
	if err != nil {
		return nil, err
	}
	if len(existing) > m.rules.MaxCandidates {
		existing = existing[:m.rules.MaxCandidates]
	}

	decision, err := strategy.Decide(candidate, existing)
	if err != nil {
		return nil, err
	}

	result, err := m.apply(ctx, candidate, key, decision)
	if err != nil {
		return nil, err
	}

	// exclusive categories keep a single current record per subject: a
	// fresh record demotes whatever was current before (e.g. an expired
	// intent the strategy declined to merge into)
	if result.Decision == DecisionCreate && candidate.Category.Exclusive() {
		for _, e := range existing {
			if !e.Current || e.ID == result.Record.ID {
				continue
			}
			e.Current = false
			if err := m.storage.Save(ctx, e); err != nil {
				return nil, err
			}
		}
	}

	if result.Decision != DecisionDiscard {
		if err := m.relations.Update(ctx, result.Record, result.Decision); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// lookupWindow pads the candidate's own time span so adjacent activity is
// part of the comparison set. Records without a span query unscoped.
func (m *Merger) lookupWindow(candidate *Record) *TimeRange {
	window, ok := candidate.Window()
	if !ok {
		return nil
	}
	padded := TimeRange{
		Start: window.Start.Add(-m.rules.ActivityWindow),
		End:   window.End.Add(m.rules.ActivityWindow),
	}
	return &padded
}

func (m *Merger) apply(ctx context.Context, candidate *Record, key string, decision Decision) (*MergeResult, error) {
	now := m.now()

	switch decision.Kind {
	case DecisionCreate:
		rec := m.prepare(candidate, key, now)
		if err := m.storage.Save(ctx, rec); err != nil {
			return nil, err
		}
		return &MergeResult{Record: rec, Decision: DecisionCreate}, nil

	case DecisionMerge:
		merged := decision.Merged
		merged.UpdatedAt = now
		if err := m.storage.Save(ctx, merged); err != nil {
			return nil, err
		}
		return &MergeResult{Record: merged, Decision: DecisionMerge}, nil

	case DecisionSupersede:
		// edges move before the target retires, and the successor write
		// comes last: a retry after a failed save re-runs the strategy,
		// sees no current record, and re-creates the successor under the
		// same ID the moved edges already point at. No ordering leaves an
		// edge naming a retired record.
		rec := m.prepare(candidate, key, now)
		if err := m.relations.Rewrite(ctx, decision.TargetID, rec.ID); err != nil {
			return nil, err
		}
		if err := m.storage.Retire(ctx, decision.TargetID); err != nil {
			return nil, err
		}
		if err := m.storage.Save(ctx, rec); err != nil {
			return nil, err
		}
		return &MergeResult{Record: rec, Decision: DecisionSupersede}, nil

	case DecisionLink:
		// the candidate stands alone; only an edge ties it to the target
		rec := m.prepare(candidate, key, now)
		if err := m.storage.Save(ctx, rec); err != nil {
			return nil, err
		}
		if err := m.relations.Link(ctx, rec.ID, decision.TargetID, RelRelatedGoal, rec.Confidence); err != nil {
			return nil, err
		}
		return &MergeResult{Record: rec, Decision: DecisionLink}, nil

	case DecisionDiscard:
		return &MergeResult{Decision: DecisionDiscard, Reason: decision.Reason}, nil
	}

	return nil, &ValidationError{Field: "decision", Detail: "unknown decision kind: " + string(decision.Kind)}
}

// prepare stamps a candidate for insertion.
func (m *Merger) prepare(candidate *Record, key string, now time.Time) *Record {
	rec := candidate.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	// the lookup key doubles as the stored subject so later merges on the
	// same key find the record
	if rec.Subject == "" {
		rec.Subject = key
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	rec.Retired = false
	if rec.Category.Exclusive() {
		rec.Current = true
	}
	// lift a content-level window into the validity columns so storage can
	// filter on it
	if rec.ValidFrom == nil || rec.ValidUntil == nil {
		if window, ok := rec.Window(); ok {
			rec.SetWindow(window)
		}
	}
	return rec
}
