package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hamed0406/ldapdiag/internal/domain"
	"github.com/hamed0406/ldapdiag/internal/repo"
)

// maxRecordsPerTarget bounds per-target history so a long-running daemon
// doesn't grow without limit.
const maxRecordsPerTarget = 256

type Store struct {
	mu      sync.RWMutex
	seq     uint64
	targets map[domain.TargetID]*domain.Target
	results map[domain.TargetID][]*domain.ProbeRecord
	alerts  map[domain.TargetID]*repo.AlertRecord
}

func New() *Store {
	return &Store{
		targets: make(map[domain.TargetID]*domain.Target),
		results: make(map[domain.TargetID][]*domain.ProbeRecord),
		alerts:  make(map[domain.TargetID]*repo.AlertRecord),
	}
}

func (m *Store) Add(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		// the sequence keeps IDs unique even when two Adds land in the
		// same timestamp tick
		m.seq++
		t.ID = domain.TargetID(fmt.Sprintf("%s-%d",
			time.Now().UTC().Format("20060102T150405"), m.seq))
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	m.targets[t.ID] = t
	return nil
}

func (m *Store) List(ctx context.Context) ([]*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, t)
	}
	return out, nil
}

func (m *Store) Append(ctx context.Context, r *domain.ProbeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rs := append(m.results[r.TargetID], r)
	if len(rs) > maxRecordsPerTarget {
		rs = rs[len(rs)-maxRecordsPerTarget:]
	}
	m.results[r.TargetID] = rs
	return nil
}

func (m *Store) LastByTarget(ctx context.Context, id domain.TargetID) (*domain.ProbeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs := m.results[id]
	if len(rs) == 0 {
		return nil, nil
	}
	return rs[len(rs)-1], nil
}

func (m *Store) Get(ctx context.Context, id domain.TargetID) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.alerts[id], nil
}

func (m *Store) Set(ctx context.Context, id domain.TargetID, diagnosis string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := &repo.AlertRecord{TargetID: id, LastDiagnosis: diagnosis}
	if !sentAt.IsZero() {
		rec.LastSentAt = &sentAt
	}
	m.alerts[id] = rec
	return nil
}
