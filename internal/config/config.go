package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr            string        // API bind address, e.g., "127.0.0.1:8080"
	LogDir          string        // logs directory
	ProbeTimeout    time.Duration // per-stage timeout for TCP and bind probes
	TrustPolicy     string        // default trust policy for re-probes ("system" etc.)
	RecheckInterval time.Duration // how often the daemon re-probes targets; 0 disables
	Concurrency     int           // max targets probed at once
	SlackWebhook    string        // empty disables notifications
	AlertCooldown   time.Duration // min gap between repeat failure alerts per target
	AlertOnRecovery bool          // also notify when a target recovers
	ProbeRPM        int           // rate limit for POST /api/probe; 0 disables
	ProbeBurst      int
}

func FromEnv() Config {
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		logDir = "logs"
	}

	probeTimeout := 5 * time.Second
	if v := os.Getenv("PROBE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			probeTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	trustPolicy := os.Getenv("TRUST_POLICY")
	if trustPolicy == "" {
		trustPolicy = "system"
	}

	recheck := 60 * time.Second
	if v := os.Getenv("RECHECK_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			recheck = time.Duration(ms) * time.Millisecond
		}
	}

	concurrency := 4
	if v := os.Getenv("MAX_CONCURRENT_PROBES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			concurrency = n
		}
	}

	cooldown := 15 * time.Minute
	if v := os.Getenv("ALERT_COOLDOWN_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			cooldown = time.Duration(ms) * time.Millisecond
		}
	}

	recovery := false
	if v := os.Getenv("ALERT_ON_RECOVERY"); v != "" {
		recovery = strings.EqualFold(v, "true") || v == "1"
	}

	probeRPM := 30
	if v := os.Getenv("PROBE_RPM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			probeRPM = n
		}
	}
	probeBurst := 10
	if v := os.Getenv("PROBE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			probeBurst = n
		}
	}

	return Config{
		Addr:            addr,
		LogDir:          logDir,
		ProbeTimeout:    probeTimeout,
		TrustPolicy:     trustPolicy,
		RecheckInterval: recheck,
		Concurrency:     concurrency,
		SlackWebhook:    os.Getenv("SLACK_WEBHOOK"),
		AlertCooldown:   cooldown,
		AlertOnRecovery: recovery,
		ProbeRPM:        probeRPM,
		ProbeBurst:      probeBurst,
	}
}
