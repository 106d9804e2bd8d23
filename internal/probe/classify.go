package probe

import "fmt"

// Diagnosis is the single actionable verdict for one target.
type Diagnosis string

const (
	DiagReachableAndBound   Diagnosis = "reachable_and_bound"
	DiagReachableBindFailed Diagnosis = "reachable_bind_failed"
	DiagUnreachable         Diagnosis = "unreachable"
	DiagInputError          Diagnosis = "input_error"
)

// ExitCode maps the diagnosis onto the CLI exit code contract.
func (d Diagnosis) ExitCode() int {
	switch d {
	case DiagReachableAndBound:
		return 0
	case DiagReachableBindFailed:
		return 1
	case DiagUnreachable:
		return 2
	default:
		return 3
	}
}

// Classify combines the two stage outcomes. bind is nil when the bind
// stage was not attempted. Pure and total: every input pair maps to
// exactly one diagnosis.
func Classify(tcp StageOutcome, bind *StageOutcome) Diagnosis {
	switch {
	case !tcp.Succeeded:
		return DiagUnreachable
	case bind == nil:
		// reachable but the bind stage never ran; treat as a bind-stage
		// failure rather than inventing a fifth verdict
		return DiagReachableBindFailed
	case bind.Succeeded:
		return DiagReachableAndBound
	default:
		return DiagReachableBindFailed
	}
}

// Summarize renders the one-line human explanation for a diagnosis,
// citing the stage error kind when there is one.
func Summarize(d Diagnosis, t Target, tcp StageOutcome, bind *StageOutcome) string {
	switch d {
	case DiagReachableAndBound:
		return fmt.Sprintf("%s is reachable and accepted an anonymous bind", t.Addr())
	case DiagUnreachable:
		return fmt.Sprintf("%s is unreachable (%s): %s", t.Addr(), tcp.Kind, tcp.Detail)
	case DiagReachableBindFailed:
		if bind == nil {
			return fmt.Sprintf("%s is reachable but the bind stage did not run", t.Addr())
		}
		return fmt.Sprintf("%s is reachable but the anonymous bind failed (%s): %s",
			t.Addr(), bind.Kind, bind.Detail)
	default:
		return fmt.Sprintf("invalid probe target %q", t.Host)
	}
}
