package repo

import (
	"context"
	"time"

	"github.com/hamed0406/ldapdiag/internal/domain"
)

// AlertRecord holds the last diagnosis we alerted on for a target and the
// last time we sent a notification (used for cooldown).
type AlertRecord struct {
	TargetID      domain.TargetID
	LastDiagnosis string
	LastSentAt    *time.Time
}

// AlertStore tracks per-target alert state.
type AlertStore interface {
	// Get returns nil, nil if there's no record yet.
	Get(ctx context.Context, id domain.TargetID) (*AlertRecord, error)
	// Set upserts the record. A zero sentAt leaves LastSentAt empty.
	Set(ctx context.Context, id domain.TargetID, diagnosis string, sentAt time.Time) error
}
