package model

import (
	"strings"
	"time"
)

// Lead is one row of the outreach ledger.
type Lead struct {
	ID            string      `json:"id"`
	Company       string      `json:"company"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	JobTitle      string      `json:"job_title"`
	Email         string      `json:"email,omitempty"`
	Phone         string      `json:"phone,omitempty"`
	LinkedInURL   string      `json:"linkedin_url,omitempty"`
	EnrichStatus  StageStatus `json:"enrich_status"`
	AIStatus      StageStatus `json:"ai_status"`
	MailStatus    MailStatus  `json:"mail_status"`
	SentAt        *time.Time  `json:"sent_at,omitempty"`
	FollowUpAt    *time.Time  `json:"follow_up_at,omitempty"`
	ReplyReceived bool        `json:"reply_received"`
	Annotation    string      `json:"annotation,omitempty"`
	Consultant    string      `json:"consultant"`
	Branch        string      `json:"branch"`
	ContactType   string      `json:"contact_type"`
	Cases         string      `json:"cases,omitempty"`
	Channel       string      `json:"channel"`
	RequestID     string      `json:"request_id,omitempty"`
	ContactID     string      `json:"contact_id,omitempty"`
	Shown         bool        `json:"shown"`
	Message       string      `json:"message,omitempty"`
	TokensUsed    int64       `json:"tokens_used"`
	CooldownDays  int         `json:"cooldown_days"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// HasEmail reports whether the lead carries a usable email address.
func (l *Lead) HasEmail() bool {
	return strings.Contains(l.Email, "@")
}

// Label is the short "company | name" form used in logs and reports.
func (l *Lead) Label() string {
	return l.Company + " | " + l.FullName()
}

// MissingMeta returns the names of the consultant meta fields that must be
// filled in before a message can be generated.
func (l *Lead) MissingMeta() []string {
	var missing []string
	if strings.TrimSpace(l.Consultant) == "" {
		missing = append(missing, "consultant")
	}
	if strings.TrimSpace(l.Branch) == "" {
		missing = append(missing, "branch")
	}
	if strings.TrimSpace(l.ContactType) == "" {
		missing = append(missing, "contact_type")
	}
	if strings.TrimSpace(l.Channel) == "" {
		missing = append(missing, "channel")
	}
	return missing
}

// NewLead returns a lead with every track in its initial state.
func NewLead() Lead {
	return Lead{
		EnrichStatus: StagePending,
		AIStatus:     StagePending,
		MailStatus:   MailPending,
	}
}

// NormalizeEmail trims and lower-cases an email address for storage and
// suppression lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
