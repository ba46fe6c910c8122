package build

import "time"

// PhaseStatus is the outcome of one builder phase.
type PhaseStatus string

const (
	PhaseSuccess PhaseStatus = "success"
	PhasePartial PhaseStatus = "partial" // completed with data-integrity warnings
	PhaseFailed  PhaseStatus = "failed"
)

// RunStatus is the aggregate outcome of a build run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunPartial RunStatus = "partial"
	RunFailed  RunStatus = "failed"
)

// maxWarningSamples bounds how many warning messages a phase report retains;
// the full count is always reported.
const maxWarningSamples = 10

// PhaseReport summarizes one phase of a build run.
type PhaseReport struct {
	Phase          string      `json:"phase"`
	Candidates     int         `json:"candidates"`
	Created        int         `json:"created"`
	Warnings       int         `json:"warnings"`
	WarningSamples []string    `json:"warning_samples,omitempty"`
	Status         PhaseStatus `json:"status"`
	Error          string      `json:"error,omitempty"`
	DurationMS     int64       `json:"duration_ms"`
}

// RunReport is the JSON-serializable summary handed to downstream consumers.
type RunReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Status     RunStatus     `json:"status"`
	Phases     []PhaseReport `json:"phases"`
}

// addWarnings folds warning messages into the report, keeping only a bounded
// sample of the text.
func (r *PhaseReport) addWarnings(msgs []string) {
	r.Warnings += len(msgs)
	for _, m := range msgs {
		if len(r.WarningSamples) >= maxWarningSamples {
			break
		}
		r.WarningSamples = append(r.WarningSamples, m)
	}
}

// finalize derives the phase status from its counters unless it already
// failed.
func (r *PhaseReport) finalize() {
	if r.Status == PhaseFailed {
		return
	}
	if r.Warnings > 0 {
		r.Status = PhasePartial
		return
	}
	r.Status = PhaseSuccess
}

// aggregate derives the run status from the phase statuses.
func aggregate(phases []PhaseReport) RunStatus {
	status := RunSuccess
	for _, p := range phases {
		switch p.Status {
		case PhaseFailed:
			return RunFailed
		case PhasePartial:
			status = RunPartial
		}
	}
	return status
}
