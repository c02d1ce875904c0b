// Package lifecycle moves lead records through the enrichment, AI and mail
// tracks. Every mutation goes through the transition tables below; a move
// the tables do not allow returns a *TransitionError and leaves the lead
// untouched.
package lifecycle

import (
	"fmt"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Track names one of the independent status tracks of a lead.
type Track string

// Lead status tracks.
const (
	TrackEnrich Track = "enrich"
	TrackAI     Track = "ai"
	TrackMail   Track = "mail"
)

// TransitionError reports a move the transition tables do not allow, or a
// precondition that does not hold.
type TransitionError struct {
	LeadID string
	Track  Track
	From   string
	To     string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("lifecycle: lead %s: %s %s -> %s not allowed", e.LeadID, e.Track, e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// CanStage reports whether a stage track may move from one status to another.
// DRY_RUN exists only on the AI track.
func CanStage(track Track, from, to model.StageStatus) bool {
	switch from {
	case model.StagePending:
		return to == model.StageRunning
	case model.StageRunning:
		switch to {
		case model.StageDone, model.StageError, model.StagePending:
			return true
		case model.StageDryRun:
			return track == TrackAI
		}
		return false
	case model.StageError:
		return to == model.StagePending || to == model.StageRunning
	case model.StageDryRun:
		return track == TrackAI && to == model.StagePending
	case model.StageDone:
		return false
	}
	return false
}

// CanMail reports whether the mail track may move from one status to another.
func CanMail(from, to model.MailStatus) bool {
	switch from {
	case model.MailPending, model.MailError:
		switch to {
		case model.MailSent, model.MailDryRunSent, model.MailError,
			model.MailBlockedDNC, model.MailBlockedSuppressed,
			model.MailBlockedNoEmail, model.MailBlockedCooldown:
			return true
		}
		return false
	case model.MailDryRunSent:
		return to == model.MailPending
	case model.MailBlockedCooldown:
		switch to {
		case model.MailPending, model.MailBlockedDNC,
			model.MailBlockedSuppressed, model.MailBlockedCooldown:
			return true
		}
		return false
	case model.MailSent, model.MailBlockedDNC,
		model.MailBlockedSuppressed, model.MailBlockedNoEmail:
		return false
	}
	return false
}

// Terminal reports whether a mail status can never change again.
func Terminal(s model.MailStatus) bool {
	switch s {
	case model.MailSent, model.MailBlockedDNC,
		model.MailBlockedSuppressed, model.MailBlockedNoEmail:
		return true
	case model.MailPending, model.MailDryRunSent, model.MailError, model.MailBlockedCooldown:
		return false
	}
	return false
}

func stageField(lead *model.Lead, track Track) *model.StageStatus {
	if track == TrackAI {
		return &lead.AIStatus
	}
	return &lead.EnrichStatus
}

func setStage(lead *model.Lead, track Track, to model.StageStatus) error {
	cur := stageField(lead, track)
	if !CanStage(track, *cur, to) {
		return &TransitionError{LeadID: lead.ID, Track: track, From: string(*cur), To: string(to)}
	}
	*cur = to
	return nil
}

func setMail(lead *model.Lead, to model.MailStatus) error {
	if !CanMail(lead.MailStatus, to) {
		return &TransitionError{LeadID: lead.ID, Track: TrackMail, From: string(lead.MailStatus), To: string(to)}
	}
	lead.MailStatus = to
	return nil
}
