package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/ldapdiag/internal/domain"
	"github.com/hamed0406/ldapdiag/internal/probe"
	"github.com/hamed0406/ldapdiag/internal/repo"
	"github.com/hamed0406/ldapdiag/internal/trust"
)

// Diagnoser runs one full two-stage diagnosis. A nil policy means the
// diagnoser's own default trust applies.
type Diagnoser interface {
	DiagnoseAs(ctx context.Context, t probe.Target, policy trust.Policy) probe.Report
}

// Rechecker periodically re-diagnoses every registered target. Each target
// gets its own independent probe; a slow or failing one never blocks its
// siblings beyond the concurrency cap.
type Rechecker struct {
	Logger      *zap.Logger
	Targets     repo.TargetStore
	Results     repo.ResultStore
	Probe       Diagnoser
	Interval    time.Duration
	Concurrency int
}

func NewRechecker(
	logger *zap.Logger,
	ts repo.TargetStore,
	rs repo.ResultStore,
	d Diagnoser,
	interval time.Duration,
	concurrency int,
) *Rechecker {
	if concurrency < 1 {
		concurrency = 1
	}
	if interval < 0 {
		interval = 0
	}
	return &Rechecker{
		Logger:      logger,
		Targets:     ts,
		Results:     rs,
		Probe:       d,
		Interval:    interval,
		Concurrency: concurrency,
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 {
		// disabled
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// immediate pass
	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Rechecker) runOnce(ctx context.Context) {
	ts, err := r.Targets.List(ctx)
	if err != nil {
		r.Logger.Warn("rechecker_list_error", zap.Error(err))
		return
	}
	if len(ts) == 0 {
		return
	}

	sem := make(chan struct{}, r.Concurrency)
	var wg sync.WaitGroup

	for _, tgt := range ts {
		t := tgt
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()

			rep := r.Probe.DiagnoseAs(ctx, probe.NewTarget(t.Host, t.Port, t.UseTLS), r.trustFor(t))

			rec := &domain.ProbeRecord{
				TargetID:  t.ID,
				Diagnosis: string(rep.Diagnosis),
				Summary:   rep.Summary,
				CheckedAt: rep.CheckedAt,
			}
			if rep.TCP != nil {
				rec.TCPLatencyMS = rep.TCP.LatencyMS
			}
			rec.ErrorKind = failedStageKind(rep)

			if err := r.Results.Append(ctx, rec); err != nil {
				r.Logger.Warn("rechecker_append_error",
					zap.String("target_id", string(t.ID)),
					zap.String("addr", rep.Target.Addr()),
					zap.Error(err),
				)
			} else {
				r.Logger.Debug("rechecker_probed",
					zap.String("target_id", string(t.ID)),
					zap.String("addr", rep.Target.Addr()),
					zap.String("diagnosis", string(rep.Diagnosis)),
					zap.String("error_kind", rec.ErrorKind),
				)
			}
		}()
	}

	wg.Wait()
}

// trustFor resolves a target's own trust policy. Empty means the target
// never asked for one, so the daemon-wide default stays in force (nil).
// The API validates the value at registration; an unparsable one here can
// only come from another store writer, so it is logged and the default used.
func (r *Rechecker) trustFor(t *domain.Target) trust.Policy {
	if t.Trust == "" {
		return nil
	}
	policy, err := trust.Parse(t.Trust)
	if err != nil {
		r.Logger.Warn("rechecker_bad_trust",
			zap.String("target_id", string(t.ID)),
			zap.String("trust", t.Trust),
			zap.Error(err),
		)
		return nil
	}
	return policy
}

// failedStageKind pulls the error kind of whichever stage failed, if any.
func failedStageKind(rep probe.Report) string {
	if rep.Bind != nil && !rep.Bind.Succeeded {
		return string(rep.Bind.Kind)
	}
	if rep.TCP != nil && !rep.TCP.Succeeded {
		return string(rep.TCP.Kind)
	}
	return ""
}
