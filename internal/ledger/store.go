// Package ledger persists lead records, archived leads and the send log.
// It is the system of record for every pipeline stage; the shared sheet is
// an import/export view of it.
package ledger

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ErrNotFound is returned (wrapped) when a lead id does not exist.
var ErrNotFound = eris.New("ledger: not found")

// Filter specifies criteria for listing leads. Zero values match anything.
type Filter struct {
	EnrichStatus model.StageStatus `json:"enrich_status,omitempty"`
	AIStatus     model.StageStatus `json:"ai_status,omitempty"`
	MailStatus   model.MailStatus  `json:"mail_status,omitempty"`
	Consultant   string            `json:"consultant,omitempty"`
	Limit        int               `json:"limit,omitempty"` // 0 = no limit
	Offset       int               `json:"offset,omitempty"`
}

// Store defines the persistence interface of the outreach ledger.
type Store interface {
	// Leads
	InsertLeads(ctx context.Context, leads []model.Lead) (int, error)
	ImportLeads(ctx context.Context, leads []model.Lead) (int, error)
	GetLead(ctx context.Context, id string) (*model.Lead, error)
	ListLeads(ctx context.Context, filter Filter) ([]model.Lead, error)
	UpdateLead(ctx context.Context, lead *model.Lead) error
	Archive(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error

	// Gate snapshot sources. Each map points a value to the owning lead id.
	ContactIDs(ctx context.Context) (map[string]string, error)
	SentEmails(ctx context.Context) (map[string]string, error)
	SentCompanies(ctx context.Context) (map[string]string, error)

	// Send log
	AppendSendLog(ctx context.Context, entry *model.SendLogEntry) error
	ListSendLog(ctx context.Context, limit int) ([]model.SendLogEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
