package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/model"
)

// MaxAnnotation is the longest annotation, in runes, stored on a lead.
const MaxAnnotation = 500

// Annotate replaces the lead's annotation, truncated to MaxAnnotation runes.
func Annotate(lead *model.Lead, text string) {
	r := []rune(text)
	if len(r) > MaxAnnotation {
		text = string(r[:MaxAnnotation-3]) + "..."
	}
	lead.Annotation = text
}

func checkOwner(lead *model.Lead, d eligibility.Decision) error {
	if d.LeadID != lead.ID {
		return eris.Errorf("lifecycle: decision for lead %s applied to lead %s", d.LeadID, lead.ID)
	}
	return nil
}

// ApplyDecision writes a gate decision onto the mail track. Blocks move the
// lead to the matching blocked status. An ALLOWED decision reopens a lead
// whose cooldown has lapsed and otherwise changes nothing. Re-applying the
// status a lead already holds only refreshes its annotation.
func ApplyDecision(lead *model.Lead, d eligibility.Decision) error {
	if err := checkOwner(lead, d); err != nil {
		return err
	}

	var to model.MailStatus
	switch d.Verdict {
	case eligibility.Allowed:
		if lead.MailStatus != model.MailBlockedCooldown {
			return nil
		}
		if err := setMail(lead, model.MailPending); err != nil {
			return err
		}
		lead.CooldownDays = 0
		Annotate(lead, fmt.Sprintf("cooldown expired, re-evaluated at %s", d.Stage))
		return nil
	case eligibility.BlockedDNC:
		to = model.MailBlockedDNC
	case eligibility.BlockedCooldown:
		to = model.MailBlockedCooldown
	case eligibility.BlockedSuppressed:
		to = model.MailBlockedSuppressed
	case eligibility.BlockedDuplicate:
		// Duplicates are never stored, so there is no status to carry.
		Annotate(lead, d.Reason)
		return nil
	default:
		return eris.Errorf("lifecycle: unknown verdict %q", d.Verdict)
	}

	if lead.MailStatus != to {
		if err := setMail(lead, to); err != nil {
			return err
		}
	}
	lead.CooldownDays = 0
	if to == model.MailBlockedCooldown {
		lead.CooldownDays = d.RemainingDays
	}
	Annotate(lead, d.Reason)
	return nil
}

// Contact is what the enrichment collaborator found for a lead.
type Contact struct {
	Email       string
	Phone       string
	LinkedInURL string
}

// StartEnrich marks the lead as being enriched.
func StartEnrich(lead *model.Lead) error {
	return setStage(lead, TrackEnrich, model.StageRunning)
}

// CompleteEnrich stores the enrichment result. A lead without an email
// address after enrichment can never be mailed and is blocked for removal.
// Both moves are checked before the lead is changed.
func CompleteEnrich(lead *model.Lead, c Contact) error {
	if !CanStage(TrackEnrich, lead.EnrichStatus, model.StageDone) {
		return &TransitionError{LeadID: lead.ID, Track: TrackEnrich, From: string(lead.EnrichStatus), To: string(model.StageDone)}
	}
	email := model.NormalizeEmail(c.Email)
	noEmail := !strings.Contains(email, "@") && !lead.HasEmail()
	if noEmail && !CanMail(lead.MailStatus, model.MailBlockedNoEmail) {
		return &TransitionError{
			LeadID: lead.ID, Track: TrackMail,
			From: string(lead.MailStatus), To: string(model.MailBlockedNoEmail),
			Reason: "no email found after enrichment",
		}
	}

	lead.EnrichStatus = model.StageDone
	if email != "" {
		lead.Email = email
	}
	if c.Phone != "" {
		lead.Phone = c.Phone
	}
	if c.LinkedInURL != "" {
		lead.LinkedInURL = c.LinkedInURL
	}
	if !noEmail {
		return nil
	}
	lead.MailStatus = model.MailBlockedNoEmail
	Annotate(lead, "no email found after enrichment")
	return nil
}

// FailEnrich records an enrichment failure.
func FailEnrich(lead *model.Lead, cause error) error {
	if err := setStage(lead, TrackEnrich, model.StageError); err != nil {
		return err
	}
	Annotate(lead, "enrich failed: "+errText(cause))
	return nil
}

// StartAI marks the lead as being generated. Generation needs a finished
// enrichment with an email address and a mail track that is still open.
func StartAI(lead *model.Lead) error {
	to := model.StageRunning
	switch {
	case lead.EnrichStatus != model.StageDone:
		return &TransitionError{LeadID: lead.ID, Track: TrackAI, From: string(lead.AIStatus), To: string(to),
			Reason: "enrichment not done"}
	case !lead.HasEmail():
		return &TransitionError{LeadID: lead.ID, Track: TrackAI, From: string(lead.AIStatus), To: string(to),
			Reason: "no email address"}
	case lead.MailStatus.Blocked() || Terminal(lead.MailStatus):
		return &TransitionError{LeadID: lead.ID, Track: TrackAI, From: string(lead.AIStatus), To: string(to),
			Reason: "mail track is " + string(lead.MailStatus)}
	}
	return setStage(lead, TrackAI, to)
}

// CompleteAI stores the generated message and its token usage.
func CompleteAI(lead *model.Lead, message string, tokens int64) error {
	if err := setStage(lead, TrackAI, model.StageDone); err != nil {
		return err
	}
	lead.Message = message
	lead.TokensUsed += tokens
	return nil
}

// DryRunAI stores a preview message without marking generation done.
func DryRunAI(lead *model.Lead, preview string) error {
	if err := setStage(lead, TrackAI, model.StageDryRun); err != nil {
		return err
	}
	lead.Message = preview
	Annotate(lead, "dry run preview")
	return nil
}

// FailAI records a generation failure.
func FailAI(lead *model.Lead, cause error) error {
	if err := setStage(lead, TrackAI, model.StageError); err != nil {
		return err
	}
	Annotate(lead, "generation failed: "+errText(cause))
	return nil
}

// PromoteDryRun reopens a dry-run preview for real generation.
func PromoteDryRun(lead *model.Lead) error {
	if err := setStage(lead, TrackAI, model.StagePending); err != nil {
		return err
	}
	lead.Message = ""
	Annotate(lead, "")
	return nil
}

// SendOutcome is what the send collaborator reported for one attempt.
type SendOutcome struct {
	At           time.Time
	DryRun       bool
	MessageID    string
	Err          error
	FollowUpDays int
}

// RecordSend applies a send attempt to the mail track. It refuses unless d
// is an ALLOWED pre-send decision computed for this lead, so SENT is only
// reachable through the gate.
func RecordSend(lead *model.Lead, d eligibility.Decision, out SendOutcome) error {
	to := model.MailSent
	switch {
	case out.Err != nil:
		to = model.MailError
	case out.DryRun:
		to = model.MailDryRunSent
	}
	if d.LeadID != lead.ID || d.Stage != eligibility.StagePreSend || !d.Allowed() {
		return &TransitionError{LeadID: lead.ID, Track: TrackMail, From: string(lead.MailStatus), To: string(to),
			Reason: "requires an ALLOWED pre-send decision, got " + d.String()}
	}
	if err := setMail(lead, to); err != nil {
		return err
	}

	switch to {
	case model.MailError:
		Annotate(lead, "send failed: "+errText(out.Err))
	case model.MailDryRunSent:
		Annotate(lead, "dry run, not sent")
	case model.MailSent:
		at := out.At
		lead.SentAt = &at
		if out.FollowUpDays > 0 {
			fu := at.AddDate(0, 0, out.FollowUpDays)
			lead.FollowUpAt = &fu
		}
		lead.CooldownDays = 0
		Annotate(lead, "sent, message id "+out.MessageID)
	}
	return nil
}

// ReopenDryRunSend puts a dry-run send back in the queue for a real send.
func ReopenDryRunSend(lead *model.Lead) error {
	if err := setMail(lead, model.MailPending); err != nil {
		return err
	}
	Annotate(lead, "")
	return nil
}

// Requeue moves a lead stuck in RUNNING, or failed with ERROR, on the given
// track back to PENDING.
func Requeue(lead *model.Lead, track Track, note string) error {
	if track == TrackMail {
		return eris.New("lifecycle: mail track has no running state")
	}
	if err := setStage(lead, track, model.StagePending); err != nil {
		return err
	}
	Annotate(lead, note)
	return nil
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
