package eligibility

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/match"
)

// Stage identifies a gated pipeline checkpoint.
type Stage string

// Pipeline checkpoints.
const (
	StagePostFetch Stage = "post-fetch"
	StagePreEnrich Stage = "pre-enrich"
	StagePreAI     Stage = "pre-ai"
	StagePreSend   Stage = "pre-send"
)

// Stages lists every checkpoint in pipeline order.
var Stages = []Stage{StagePostFetch, StagePreEnrich, StagePreAI, StagePreSend}

// ParseStage converts a string to a Stage.
func ParseStage(s string) (Stage, error) {
	for _, st := range Stages {
		if string(st) == s {
			return st, nil
		}
	}
	return "", eris.Errorf("eligibility: unknown stage %q", s)
}

// Verdict is the allow/block outcome of a gate check.
type Verdict string

// Gate verdicts.
const (
	Allowed           Verdict = "ALLOWED"
	BlockedDNC        Verdict = "BLOCKED_DNC"
	BlockedCooldown   Verdict = "BLOCKED_COOLDOWN"
	BlockedDuplicate  Verdict = "BLOCKED_DUPLICATE"
	BlockedSuppressed Verdict = "BLOCKED_SUPPRESSED"
)

// Decision is the gate's verdict for one lead at one stage.
type Decision struct {
	LeadID        string     `json:"lead_id"`
	Stage         Stage      `json:"stage"`
	Verdict       Verdict    `json:"verdict"`
	Reason        string     `json:"reason,omitempty"`
	RemainingDays int        `json:"remaining_days,omitempty"`
	Matched       string     `json:"matched,omitempty"`
	Rule          match.Rule `json:"rule,omitempty"`
}

// Allowed reports whether the lead may proceed.
func (d Decision) Allowed() bool {
	return d.Verdict == Allowed
}

func (d Decision) String() string {
	if d.Reason == "" {
		return fmt.Sprintf("%s@%s", d.Verdict, d.Stage)
	}
	return fmt.Sprintf("%s@%s: %s", d.Verdict, d.Stage, d.Reason)
}
