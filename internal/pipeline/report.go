package pipeline

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/model"
)

// LeadError is a per-record failure that did not stop the batch.
type LeadError struct {
	LeadID string
	Label  string
	Err    error
}

func (e LeadError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Label, e.LeadID, e.Err)
}

// Report summarizes one stage run.
type Report struct {
	Stage     string
	Processed int
	Succeeded int
	Skipped   int
	Verdicts  map[eligibility.Verdict]int
	Errors    []LeadError
	Tokens    int64
	Cost      float64 // estimated USD
	Stopped   string // why the batch ended early, if it did
}

func newReport(stage string) *Report {
	return &Report{Stage: stage, Verdicts: make(map[eligibility.Verdict]int)}
}

// Failed is the number of records that ended with an error.
func (r *Report) Failed() int { return len(r.Errors) }

// Blocked is the number of gate blocks.
func (r *Report) Blocked() int {
	n := 0
	for v, c := range r.Verdicts {
		if v != eligibility.Allowed {
			n += c
		}
	}
	return n
}

func (r *Report) verdict(d eligibility.Decision) {
	r.Verdicts[d.Verdict]++
}

func (r *Report) fail(l *model.Lead, err error) {
	r.Errors = append(r.Errors, LeadError{LeadID: l.ID, Label: l.Label(), Err: err})
	zap.L().Warn("pipeline: lead failed",
		zap.String("stage", r.Stage),
		zap.String("lead", l.Label()),
		zap.Error(err),
	)
}

// String renders a one-line summary.
func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: processed=%d ok=%d skipped=%d failed=%d", r.Stage, r.Processed, r.Succeeded, r.Skipped, r.Failed())
	for _, v := range slices.Sorted(maps.Keys(r.Verdicts)) {
		if v != eligibility.Allowed {
			fmt.Fprintf(&sb, " %s=%d", strings.ToLower(string(v)), r.Verdicts[v])
		}
	}
	if r.Tokens > 0 {
		fmt.Fprintf(&sb, " tokens=%d", r.Tokens)
	}
	if r.Cost > 0 {
		fmt.Fprintf(&sb, " cost=$%.2f", r.Cost)
	}
	if r.Stopped != "" {
		fmt.Fprintf(&sb, " stopped=%q", r.Stopped)
	}
	return sb.String()
}

// Log writes the summary at info.
func (r *Report) Log() {
	fields := []zap.Field{
		zap.String("stage", r.Stage),
		zap.Int("processed", r.Processed),
		zap.Int("succeeded", r.Succeeded),
		zap.Int("skipped", r.Skipped),
		zap.Int("blocked", r.Blocked()),
		zap.Int("failed", r.Failed()),
	}
	if r.Tokens > 0 {
		fields = append(fields, zap.Int64("tokens", r.Tokens))
	}
	if r.Cost > 0 {
		fields = append(fields, zap.Float64("estimated_cost_usd", r.Cost))
	}
	if r.Stopped != "" {
		fields = append(fields, zap.String("stopped", r.Stopped))
	}
	zap.L().Info("pipeline: stage complete", fields...)
}
