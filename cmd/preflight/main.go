// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hamed0406/ldapdiag/internal/trust"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	addr := strings.TrimSpace(os.Getenv("ADDR"))
	logDir := strings.TrimSpace(os.Getenv("LOG_DIR"))
	policy := strings.TrimSpace(os.Getenv("TRUST_POLICY"))
	timeoutMS := strings.TrimSpace(os.Getenv("PROBE_TIMEOUT_MS"))
	webhook := strings.TrimSpace(os.Getenv("SLACK_WEBHOOK"))

	if policy != "" {
		if _, err := trust.Parse(policy); err != nil {
			fail("TRUST_POLICY invalid: " + err.Error())
		}
		if policy == "accept-all" {
			warn("TRUST_POLICY=accept-all disables certificate verification for every re-probe.")
		}
		ok("TRUST_POLICY=" + policy)
	} else {
		ok("TRUST_POLICY empty; system trust store will be used.")
	}

	if timeoutMS != "" {
		if ms, err := strconv.Atoi(timeoutMS); err != nil || ms <= 0 {
			fail("PROBE_TIMEOUT_MS must be a positive integer, got " + timeoutMS)
		}
		ok("PROBE_TIMEOUT_MS=" + timeoutMS)
	}

	if addr == "" {
		warn("ADDR is empty; the daemon default will be used.")
	} else {
		ok("ADDR=" + addr)
	}

	if logDir == "" {
		warn("LOG_DIR empty — logs land in ./logs.")
	} else {
		ok("LOG_DIR=" + logDir)
	}

	if webhook == "" {
		warn("SLACK_WEBHOOK empty — diagnosis-change alerts are disabled.")
	} else {
		ok("SLACK_WEBHOOK present")
	}

	ok("preflight passed")
}
