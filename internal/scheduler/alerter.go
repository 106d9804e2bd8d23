package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hamed0406/ldapdiag/internal/repo"
)

type AlerterConfig struct {
	AlertOnRecovery bool
	Cooldown        time.Duration
	PollInterval    time.Duration
}

// Alerter watches the latest diagnosis per target and notifies on state
// changes: a target that stops binding (or stops answering at all) raises
// an alert, a recovery optionally raises one too.
type Alerter struct {
	targets  repo.TargetStore
	results  repo.ResultStore
	alertDB  repo.AlertStore
	notifier interface {
		Send(context.Context, string, string) error
	}
	cfg AlerterConfig
}

func NewAlerter(
	targets repo.TargetStore,
	results repo.ResultStore,
	alertDB repo.AlertStore,
	notifier interface {
		Send(context.Context, string, string) error
	},
	cfg AlerterConfig,
) *Alerter {
	return &Alerter{
		targets:  targets,
		results:  results,
		alertDB:  alertDB,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (a *Alerter) Run(ctx context.Context) error {
	t := time.NewTicker(a.cfg.PollInterval)
	defer t.Stop()

	// initial pass
	_ = a.scanOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			_ = a.scanOnce(ctx)
		}
	}
}

func (a *Alerter) scanOnce(ctx context.Context) error {
	ts, err := a.targets.List(ctx)
	if err != nil {
		return err
	}

	now := time.Now()

	for _, tgt := range ts {
		r, err := a.results.LastByTarget(ctx, tgt.ID)
		if err != nil || r == nil {
			continue // not probed yet
		}

		rec, _ := a.alertDB.Get(ctx, tgt.ID)

		// Has the diagnosis changed compared to what we last recorded?
		stateChanged := rec == nil || rec.LastDiagnosis != r.Diagnosis

		// Cooldown only matters for failure alerts (suppresses noisy repeats).
		cooled := true
		if rec != nil && rec.LastSentAt != nil {
			cooled = now.Sub(*rec.LastSentAt) >= a.cfg.Cooldown
		}

		failureAlert := stateChanged && !r.Healthy() && cooled
		recoveryAlert := stateChanged && r.Healthy() && a.cfg.AlertOnRecovery // bypass cooldown

		if failureAlert || recoveryAlert {
			title := "🔴 Directory target DEGRADED"
			if r.Healthy() {
				title = "🟢 Directory target RECOVERED"
			}

			kindTxt := "n/a"
			if r.ErrorKind != "" {
				kindTxt = r.ErrorKind
			}

			text := fmt.Sprintf(
				"Target: %s:%d\nDiagnosis: %s\nError kind: %s\nSummary: %s\nChecked: %s",
				tgt.Host, tgt.Port, r.Diagnosis, kindTxt, r.Summary,
				r.CheckedAt.Format(time.RFC3339),
			)

			// Best-effort send and record the send time
			_ = a.notifier.Send(ctx, title, text)
			_ = a.alertDB.Set(ctx, tgt.ID, r.Diagnosis, now)
			continue
		}

		// If state changed but we did not send (e.g., failure within cooldown
		// or recovery alerts disabled), still record the new state.
		if stateChanged {
			_ = a.alertDB.Set(ctx, tgt.ID, r.Diagnosis, time.Time{})
		}
	}

	return nil
}
