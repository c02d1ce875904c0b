package model

import "time"

// ContactMoment is one historical contact with a company.
type ContactMoment struct {
	Date time.Time `json:"date"`
	Tags []string  `json:"tags"`
}

// RecentContact groups the contact moments recorded for one company name.
type RecentContact struct {
	Company string          `json:"company"`
	Moments []ContactMoment `json:"moments"`
}

// SendLogEntry is the audit record of one send attempt.
type SendLogEntry struct {
	ID         string     `json:"id"`
	LeadID     string     `json:"lead_id"`
	Email      string     `json:"email"`
	Company    string     `json:"company"`
	FirstName  string     `json:"first_name"`
	JobTitle   string     `json:"job_title"`
	Consultant string     `json:"consultant"`
	Branch     string     `json:"branch"`
	Status     MailStatus `json:"status"`
	MessageID  string     `json:"message_id,omitempty"`
	Error      string     `json:"error,omitempty"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	CreatedAt  time.Time  `json:"created_at"`
}
