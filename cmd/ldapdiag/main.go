// Command ldapdiag diagnoses LDAP/LDAPS connectivity to a directory server:
// a TCP reachability check, then an anonymous bind, classified into one
// actionable verdict.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/hamed0406/ldapdiag/internal/logging"
	"github.com/hamed0406/ldapdiag/internal/probe"
	"github.com/hamed0406/ldapdiag/internal/trust"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is separated from main() to facilitate testing.
func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("ldapdiag", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		target   = fs.String("target", "", "directory server hostname or IP (required)")
		port     = fs.Uint("port", 0, "port (default 389, or 636 with -tls)")
		useTLS   = fs.Bool("tls", false, "use LDAPS (TLS-wrapped LDAP)")
		trustArg = fs.String("trust", "system", "trust policy: system, accept-all, or pinned:<sha256-hex>")
		timeout  = fs.Duration("timeout", 5*time.Second, "per-stage timeout")
		asJSON   = fs.Bool("json", false, "emit the full report as JSON")
		verbose  = fs.Bool("verbose", false, "log stage details to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return 3
	}

	if *port > 65535 {
		fmt.Fprintln(stderr, "✖ -port out of range")
		return 3
	}
	policy, err := trust.Parse(*trustArg)
	if err != nil {
		fmt.Fprintln(stderr, "✖", err)
		return 3
	}

	logger := logging.NewConsoleLogger(*verbose)
	defer logger.Sync()

	pipeline := probe.NewPipeline(logger, policy, *timeout)
	rep := pipeline.Diagnose(context.Background(), probe.NewTarget(*target, uint16(*port), *useTLS))

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(rep)
		return rep.Diagnosis.ExitCode()
	}

	render(stdout, rep)
	return rep.Diagnosis.ExitCode()
}

// render prints the human-readable report. Presentation only; every fact
// comes from the structured Report.
func render(out *os.File, rep probe.Report) {
	ok := func(msg string) { fmt.Fprintln(out, "✔", msg) }
	bad := func(msg string) { fmt.Fprintln(out, "✖", msg) }

	if rep.Diagnosis == probe.DiagInputError {
		bad(rep.Summary)
		return
	}

	if rep.TCP != nil {
		if rep.TCP.Succeeded {
			ok(fmt.Sprintf("tcp connect %s (%.1f ms)", rep.Target.Addr(), rep.TCP.LatencyMS))
		} else {
			bad(fmt.Sprintf("tcp connect %s failed [%s]: %s", rep.Target.Addr(), rep.TCP.Kind, rep.TCP.Detail))
		}
	}
	if rep.Bind != nil {
		if rep.Bind.Succeeded {
			ok(fmt.Sprintf("anonymous bind accepted (%.1f ms)", rep.Bind.LatencyMS))
		} else {
			bad(fmt.Sprintf("anonymous bind failed [%s]: %s", rep.Bind.Kind, rep.Bind.Detail))
		}
	}
	fmt.Fprintln(out, rep.Summary)
}
