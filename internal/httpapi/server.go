package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hamed0406/ldapdiag/internal/domain"
	"github.com/hamed0406/ldapdiag/internal/httpapi/middleware"
	"github.com/hamed0406/ldapdiag/internal/probe"
	"github.com/hamed0406/ldapdiag/internal/repo"
	"github.com/hamed0406/ldapdiag/internal/trust"
)

// Diagnoser runs one full two-stage diagnosis. A nil policy means the
// diagnoser's own default trust applies.
type Diagnoser interface {
	DiagnoseAs(ctx context.Context, t probe.Target, policy trust.Policy) probe.Report
}

type Server struct {
	Logger  *zap.Logger
	Targets repo.TargetStore
	Results repo.ResultStore
	Probe   Diagnoser

	// rate limit for the probe-on-demand endpoint (it triggers outbound
	// network I/O, so it must not be free to hammer)
	ProbeRPM   int
	ProbeBurst int
}

func NewServer(l *zap.Logger, ts repo.TargetStore, rs repo.ResultStore, d Diagnoser) *Server {
	return &Server{Logger: l, Targets: ts, Results: rs, Probe: d, ProbeRPM: 30, ProbeBurst: 10}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/targets", s.handleListTargets)
	r.Post("/api/targets", s.handleAddTarget)
	r.Get("/api/results", s.handleListResults)
	r.With(middleware.RateLimit(s.ProbeRPM, s.ProbeBurst)).
		Post("/api/probe", s.handleProbe)

	return r
}

type targetPayload struct {
	Host   string `json:"host"`
	Port   uint16 `json:"port"`
	UseTLS bool   `json:"use_tls"`
	Trust  string `json:"trust"`
}

func (s *Server) handleAddTarget(w http.ResponseWriter, r *http.Request) {
	var p targetPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil || p.Host == "" {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if p.Trust != "" {
		if _, err := trust.Parse(p.Trust); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	pt := probe.NewTarget(p.Host, p.Port, p.UseTLS)
	t := &domain.Target{
		Host:      pt.Host,
		Port:      pt.Port,
		UseTLS:    pt.UseTLS,
		Trust:     p.Trust,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Targets.Add(r.Context(), t); err != nil {
		http.Error(w, "could not add", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("target_added",
		zap.String("id", string(t.ID)),
		zap.String("addr", pt.Addr()),
		zap.Bool("tls", t.UseTLS),
	)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Targets.List(r.Context())
	if err != nil {
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ts)
}

// handleProbe runs a one-shot diagnosis without registering the target.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var p targetPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	var policy trust.Policy
	if p.Trust != "" {
		var err error
		if policy, err = trust.Parse(p.Trust); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	rep := s.Probe.DiagnoseAs(r.Context(), probe.NewTarget(p.Host, p.Port, p.UseTLS), policy)
	status := http.StatusOK
	if rep.Diagnosis == probe.DiagInputError {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, rep)
}

// handleListResults returns the newest record per registered target.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	ts, err := s.Targets.List(r.Context())
	if err != nil {
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	out := make([]*domain.ProbeRecord, 0, len(ts))
	for _, t := range ts {
		rec, err := s.Results.LastByTarget(r.Context(), t.ID)
		if err != nil || rec == nil {
			continue
		}
		out = append(out, rec)
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
