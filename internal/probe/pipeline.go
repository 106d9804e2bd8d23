package probe

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/ldapdiag/internal/trust"
)

// Report is the full structured result of one diagnosis. Rendering it
// (console, JSON, HTTP) is the caller's business; the pipeline never
// formats output.
type Report struct {
	Target    Target        `json:"target"`
	TCP       *StageOutcome `json:"tcp,omitempty"`
	Bind      *StageOutcome `json:"bind,omitempty"`
	Diagnosis Diagnosis     `json:"diagnosis"`
	Summary   string        `json:"summary"`
	CheckedAt time.Time     `json:"checked_at"`
}

// Pipeline runs the two probe stages in order and classifies the result.
// Each Diagnose call is independent; a Pipeline is safe for concurrent use
// as long as its probers are.
type Pipeline struct {
	Logger  *zap.Logger
	TCP     TransportProber
	Bind    SessionProber
	Timeout time.Duration
}

// NewPipeline wires the default probers with a shared per-stage timeout.
func NewPipeline(logger *zap.Logger, policy trust.Policy, timeout time.Duration) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		Logger:  logger,
		TCP:     NewTCPProber(timeout),
		Bind:    NewBindProber(policy, timeout),
		Timeout: timeout,
	}
}

// DiagnoseAs runs Diagnose with the bind stage under a different trust
// policy. A nil policy keeps the pipeline's own prober, so callers can
// pass through a per-target override or leave the default in force.
func (p *Pipeline) DiagnoseAs(ctx context.Context, t Target, policy trust.Policy) Report {
	if policy == nil {
		return p.Diagnose(ctx, t)
	}
	q := *p
	q.Bind = NewBindProber(policy, p.Timeout)
	return q.Diagnose(ctx, t)
}

// Diagnose runs validate → TCP → (iff TCP succeeded) bind → classify.
// The bind prober is never invoked on an unreachable target, and nothing
// network-facing runs for an invalid one.
func (p *Pipeline) Diagnose(ctx context.Context, t Target) Report {
	now := time.Now().UTC()

	if err := t.Validate(); err != nil {
		return Report{
			Target:    t,
			Diagnosis: DiagInputError,
			Summary:   "invalid probe target: " + err.Error(),
			CheckedAt: now,
		}
	}

	tcp := p.TCP.Probe(ctx, t)
	p.Logger.Debug("tcp_probe",
		zap.String("addr", t.Addr()),
		zap.Bool("ok", tcp.Succeeded),
		zap.Float64("latency_ms", tcp.LatencyMS),
		zap.String("error_kind", string(tcp.Kind)),
	)

	var bind *StageOutcome
	if tcp.Succeeded {
		out := p.Bind.Probe(ctx, t)
		bind = &out
		p.Logger.Debug("bind_probe",
			zap.String("addr", t.Addr()),
			zap.Bool("tls", t.UseTLS),
			zap.Bool("ok", out.Succeeded),
			zap.Float64("latency_ms", out.LatencyMS),
			zap.String("error_kind", string(out.Kind)),
		)
	}

	d := Classify(tcp, bind)
	return Report{
		Target:    t,
		TCP:       &tcp,
		Bind:      bind,
		Diagnosis: d,
		Summary:   Summarize(d, t, tcp, bind),
		CheckedAt: now,
	}
}
