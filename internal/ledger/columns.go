package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/outreach-cli/internal/model"
)

// leadColumns is the column order shared by both backends.
var leadColumns = []string{
	"id", "company", "first_name", "last_name", "job_title",
	"email", "phone", "linkedin_url",
	"enrich_status", "ai_status", "mail_status",
	"sent_at", "follow_up_at", "reply_received", "annotation",
	"consultant", "branch", "contact_type", "cases", "channel",
	"request_id", "contact_id", "shown", "message",
	"tokens_used", "cooldown_days", "created_at", "updated_at",
}

var sendLogColumns = []string{
	"id", "lead_id", "email", "company", "first_name", "job_title",
	"consultant", "branch", "status", "message_id", "error",
	"subject", "body", "created_at",
}

func leadValues(l *model.Lead) []any {
	return []any{
		l.ID, l.Company, l.FirstName, l.LastName, l.JobTitle,
		l.Email, l.Phone, l.LinkedInURL,
		string(l.EnrichStatus), string(l.AIStatus), string(l.MailStatus),
		l.SentAt, l.FollowUpAt, l.ReplyReceived, l.Annotation,
		l.Consultant, l.Branch, l.ContactType, l.Cases, l.Channel,
		l.RequestID, l.ContactID, l.Shown, l.Message,
		l.TokensUsed, l.CooldownDays, l.CreatedAt, l.UpdatedAt,
	}
}

// leadTargets returns scan destinations in leadColumns order. sentAt and
// followUp receive the nullable timestamps in whatever form the driver
// needs.
func leadTargets(l *model.Lead, sentAt, followUp any) []any {
	return []any{
		&l.ID, &l.Company, &l.FirstName, &l.LastName, &l.JobTitle,
		&l.Email, &l.Phone, &l.LinkedInURL,
		&l.EnrichStatus, &l.AIStatus, &l.MailStatus,
		sentAt, followUp, &l.ReplyReceived, &l.Annotation,
		&l.Consultant, &l.Branch, &l.ContactType, &l.Cases, &l.Channel,
		&l.RequestID, &l.ContactID, &l.Shown, &l.Message,
		&l.TokensUsed, &l.CooldownDays, &l.CreatedAt, &l.UpdatedAt,
	}
}

func sendLogValues(e *model.SendLogEntry) []any {
	return []any{
		e.ID, e.LeadID, e.Email, e.Company, e.FirstName, e.JobTitle,
		e.Consultant, e.Branch, string(e.Status), e.MessageID, e.Error,
		e.Subject, e.Body, e.CreatedAt,
	}
}

func sendLogTargets(e *model.SendLogEntry) []any {
	return []any{
		&e.ID, &e.LeadID, &e.Email, &e.Company, &e.FirstName, &e.JobTitle,
		&e.Consultant, &e.Branch, &e.Status, &e.MessageID, &e.Error,
		&e.Subject, &e.Body, &e.CreatedAt,
	}
}

// prepareInsert fills ids and timestamps of new leads.
func prepareInsert(l *model.Lead, now time.Time) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	l.Email = model.NormalizeEmail(l.Email)
	if l.EnrichStatus == "" {
		l.EnrichStatus = model.StagePending
	}
	if l.AIStatus == "" {
		l.AIStatus = model.StagePending
	}
	if l.MailStatus == "" {
		l.MailStatus = model.MailPending
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
}

func prepareSendLog(e *model.SendLogEntry, now time.Time) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.Email = model.NormalizeEmail(e.Email)
}

// placeholders renders n bind parameters: "?, ?" or "$1, $2".
func placeholders(n int, dollar bool) string {
	ps := make([]string, n)
	for i := range ps {
		if dollar {
			ps[i] = fmt.Sprintf("$%d", i+1)
		} else {
			ps[i] = "?"
		}
	}
	return strings.Join(ps, ", ")
}

// updateAssignments renders "col = <bind>" for every lead column except the
// id and created_at, numbering dollar parameters from 1.
func updateAssignments(dollar bool) (string, int) {
	var sets []string
	n := 0
	for _, c := range leadColumns {
		if c == "id" || c == "created_at" {
			continue
		}
		n++
		if dollar {
			sets = append(sets, fmt.Sprintf("%s = $%d", c, n))
		} else {
			sets = append(sets, c+" = ?")
		}
	}
	return strings.Join(sets, ", "), n
}

// updateValues returns the values matching updateAssignments.
func updateValues(l *model.Lead) []any {
	all := leadValues(l)
	out := make([]any, 0, len(all)-2)
	for i, c := range leadColumns {
		if c == "id" || c == "created_at" {
			continue
		}
		out = append(out, all[i])
	}
	return out
}

// addOwner records value -> id unless the value is empty or already owned.
func addOwner(m map[string]string, value, id string) {
	if value == "" {
		return
	}
	if _, ok := m[value]; !ok {
		m[value] = id
	}
}
