package service

import (
	"context"

	"go.uber.org/zap"

	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

// DependencyCounter reports how many dependent records reference the given id.
type DependencyCounter func(ctx context.Context, id string) (int, error)

type dependencyRule struct {
	dependentKind string
	count         DependencyCounter
}

// IntegrityGuard enforces structural invariants that have nothing to do with
// time: an entity cannot be deleted while dependent records reference it.
// The delete-blocked pattern recurs across rooms, terms, sections,
// departments and programs, so it is registered once per (kind, dependent)
// edge instead of re-implemented per entity.
type IntegrityGuard struct {
	rules  map[string][]dependencyRule
	logger *zap.Logger
}

// NewIntegrityGuard builds an empty guard.
func NewIntegrityGuard(logger *zap.Logger) *IntegrityGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrityGuard{rules: make(map[string][]dependencyRule), logger: logger}
}

// Protect registers a dependency edge: deleting a `kind` record is blocked
// while the counter reports dependent `dependentKind` records.
func (g *IntegrityGuard) Protect(kind, dependentKind string, counter DependencyCounter) {
	g.rules[kind] = append(g.rules[kind], dependencyRule{dependentKind: dependentKind, count: counter})
}

// EnsureDeletable verifies every registered edge for the entity, failing
// with DependencyExists on the first edge with live dependents.
func (g *IntegrityGuard) EnsureDeletable(ctx context.Context, kind, id string) error {
	for _, rule := range g.rules[kind] {
		count, err := rule.count(ctx, id)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count dependent records")
		}
		if count > 0 {
			g.logger.Info("delete blocked by dependents",
				zap.String("kind", kind),
				zap.String("id", id),
				zap.String("dependent_kind", rule.dependentKind),
				zap.Int("count", count),
			)
			return appErrors.DependencyExists(rule.dependentKind, count)
		}
	}
	return nil
}
