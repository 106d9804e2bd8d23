package domain

import "time"

type TargetID string

// Target is a directory server registered with the daemon for periodic
// re-probing. The probe core has its own target type; this one carries
// the bookkeeping the API and stores need.
type Target struct {
	ID        TargetID  `json:"id"`
	Host      string    `json:"host"`
	Port      uint16    `json:"port"`
	UseTLS    bool      `json:"use_tls"`
	Trust     string    `json:"trust,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProbeRecord is one completed diagnosis of a registered target.
type ProbeRecord struct {
	TargetID     TargetID  `json:"target_id"`
	Diagnosis    string    `json:"diagnosis"`
	Summary      string    `json:"summary"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	TCPLatencyMS float64   `json:"tcp_latency_ms"`
	CheckedAt    time.Time `json:"checked_at"`
}

// Healthy reports whether the record's diagnosis is the fully-working one.
func (r ProbeRecord) Healthy() bool {
	return r.Diagnosis == "reachable_and_bound"
}
