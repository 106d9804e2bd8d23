package repo

import (
	"context"

	"github.com/hamed0406/ldapdiag/internal/domain"
)

// Ports (interfaces) — the daemon only ever talks to these. Everything is
// process-local state; probe history is deliberately not persisted.
type TargetStore interface {
	Add(ctx context.Context, t *domain.Target) error
	List(ctx context.Context) ([]*domain.Target, error)
}

type ResultStore interface {
	Append(ctx context.Context, r *domain.ProbeRecord) error
	LastByTarget(ctx context.Context, id domain.TargetID) (*domain.ProbeRecord, error)
}
