package model

// StageStatus is the state of a lead on the enrichment or AI-generation track.
type StageStatus string

const (
	StagePending StageStatus = "PENDING"
	StageRunning StageStatus = "RUNNING"
	StageDone    StageStatus = "DONE"
	StageError   StageStatus = "ERROR"
	StageDryRun  StageStatus = "DRY_RUN" // AI track only; reopenable
)

// Valid reports whether s is a known stage status.
func (s StageStatus) Valid() bool {
	switch s {
	case StagePending, StageRunning, StageDone, StageError, StageDryRun:
		return true
	default:
		return false
	}
}

// MailStatus is the state of a lead on the mail track.
type MailStatus string

const (
	MailPending           MailStatus = "PENDING"
	MailSent              MailStatus = "SENT"
	MailDryRunSent        MailStatus = "DRY_RUN_SENT"
	MailError             MailStatus = "ERROR"
	MailBlockedDNC        MailStatus = "BLOCKED_DNC"
	MailBlockedSuppressed MailStatus = "BLOCKED_SUPPRESSED"
	MailBlockedNoEmail    MailStatus = "BLOCKED_NO_EMAIL"
	MailBlockedCooldown   MailStatus = "BLOCKED_COOLDOWN"
)

// AllMailStatuses lists every mail status in display order.
var AllMailStatuses = []MailStatus{
	MailPending, MailSent, MailDryRunSent, MailError,
	MailBlockedDNC, MailBlockedSuppressed, MailBlockedNoEmail, MailBlockedCooldown,
}

// Valid reports whether s is a known mail status.
func (s MailStatus) Valid() bool {
	switch s {
	case MailPending, MailSent, MailDryRunSent, MailError,
		MailBlockedDNC, MailBlockedSuppressed, MailBlockedNoEmail, MailBlockedCooldown:
		return true
	default:
		return false
	}
}

// Blocked reports whether s is one of the gate-imposed blocked states.
func (s MailStatus) Blocked() bool {
	switch s {
	case MailBlockedDNC, MailBlockedSuppressed, MailBlockedNoEmail, MailBlockedCooldown:
		return true
	default:
		return false
	}
}

// ParseStageStatus maps a stored value to a StageStatus. Empty values read
// as PENDING so freshly appended sheet rows need no explicit status.
func ParseStageStatus(v string) (StageStatus, bool) {
	if v == "" {
		return StagePending, true
	}
	s := StageStatus(v)
	return s, s.Valid()
}

// ParseMailStatus maps a stored value to a MailStatus, with the same empty
// handling as ParseStageStatus.
func ParseMailStatus(v string) (MailStatus, bool) {
	if v == "" {
		return MailPending, true
	}
	s := MailStatus(v)
	return s, s.Valid()
}
