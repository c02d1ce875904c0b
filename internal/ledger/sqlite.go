package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteLeadTable = `(
	id             TEXT PRIMARY KEY,
	company        TEXT NOT NULL,
	first_name     TEXT NOT NULL DEFAULT '',
	last_name      TEXT NOT NULL DEFAULT '',
	job_title      TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	linkedin_url   TEXT NOT NULL DEFAULT '',
	enrich_status  TEXT NOT NULL DEFAULT 'PENDING',
	ai_status      TEXT NOT NULL DEFAULT 'PENDING',
	mail_status    TEXT NOT NULL DEFAULT 'PENDING',
	sent_at        DATETIME,
	follow_up_at   DATETIME,
	reply_received INTEGER NOT NULL DEFAULT 0,
	annotation     TEXT NOT NULL DEFAULT '',
	consultant     TEXT NOT NULL DEFAULT '',
	branch         TEXT NOT NULL DEFAULT '',
	contact_type   TEXT NOT NULL DEFAULT '',
	cases          TEXT NOT NULL DEFAULT '',
	channel        TEXT NOT NULL DEFAULT '',
	request_id     TEXT NOT NULL DEFAULT '',
	contact_id     TEXT NOT NULL DEFAULT '',
	shown          INTEGER NOT NULL DEFAULT 0,
	message        TEXT NOT NULL DEFAULT '',
	tokens_used    INTEGER NOT NULL DEFAULT 0,
	cooldown_days  INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))`

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads ` + sqliteLeadTable + `
);

CREATE TABLE IF NOT EXISTS archived_leads ` + sqliteLeadTable + `,
	archived_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	archive_reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS send_log (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	company    TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	job_title  TEXT NOT NULL DEFAULT '',
	consultant TEXT NOT NULL DEFAULT '',
	branch     TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL,
	message_id TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL DEFAULT '',
	body       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_contact_id ON leads(contact_id) WHERE contact_id <> '';
CREATE INDEX IF NOT EXISTS idx_leads_mail_status ON leads(mail_status);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_send_log_status ON send_log(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	sqliteLeadCols   = strings.Join(leadColumns, ", ")
	sqliteInsertLead = `INSERT INTO leads (` + sqliteLeadCols + `) VALUES (` + placeholders(len(leadColumns), false) + `)`
)

func (s *SQLiteStore) InsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert leads")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for i := range leads {
		prepareInsert(&leads[i], now)
		if _, err := tx.ExecContext(ctx, sqliteInsertLead, leadValues(&leads[i])...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert lead %s", leads[i].Label())
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert leads")
	}
	return len(leads), nil
}

func (s *SQLiteStore) ImportLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}
	var sets []string
	for _, c := range leadColumns {
		if c != "id" && c != "created_at" {
			sets = append(sets, c+" = excluded."+c)
		}
	}
	query := sqliteInsertLead + ` ON CONFLICT(id) DO UPDATE SET ` + strings.Join(sets, ", ")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import leads")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for i := range leads {
		prepareInsert(&leads[i], now)
		if _, err := tx.ExecContext(ctx, query, leadValues(&leads[i])...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import lead %s", leads[i].Label())
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import leads")
	}
	return len(leads), nil
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteLeadCols+` FROM leads WHERE id = ?`, id)
	l, err := scanSQLiteLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: lead %s", id)
	}
	return l, err
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter Filter) ([]model.Lead, error) {
	query := `SELECT ` + sqliteLeadCols + ` FROM leads WHERE 1=1`
	var args []any

	if filter.EnrichStatus != "" {
		query += ` AND enrich_status = ?`
		args = append(args, string(filter.EnrichStatus))
	}
	if filter.AIStatus != "" {
		query += ` AND ai_status = ?`
		args = append(args, string(filter.AIStatus))
	}
	if filter.MailStatus != "" {
		query += ` AND mail_status = ?`
		args = append(args, string(filter.MailStatus))
	}
	if filter.Consultant != "" {
		query += ` AND consultant = ?`
		args = append(args, filter.Consultant)
	}
	query += ` ORDER BY rowid`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		l, err := scanSQLiteLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now().UTC()
	lead.Email = model.NormalizeEmail(lead.Email)
	sets, _ := updateAssignments(false)
	args := append(updateValues(lead), lead.ID)

	res, err := s.db.ExecContext(ctx, `UPDATE leads SET `+sets+` WHERE id = ?`, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", lead.ID)
	}
	return checkRowsAffected(res, lead.ID)
}

func (s *SQLiteStore) Archive(ctx context.Context, id, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin archive")
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx,
		`INSERT INTO archived_leads (`+sqliteLeadCols+`, archived_at, archive_reason)
		 SELECT `+sqliteLeadCols+`, ?, ? FROM leads WHERE id = ?`,
		time.Now().UTC(), reason, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: archive lead %s", id)
	}
	if err := checkRowsAffected(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id); err != nil {
		return eris.Wrapf(err, "sqlite: remove archived lead %s", id)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit archive")
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return checkRowsAffected(res, id)
}

func (s *SQLiteStore) ContactIDs(ctx context.Context) (map[string]string, error) {
	return s.owners(ctx, `SELECT contact_id, id FROM leads WHERE contact_id <> '' ORDER BY rowid`, false)
}

func (s *SQLiteStore) SentEmails(ctx context.Context) (map[string]string, error) {
	return s.owners(ctx,
		`SELECT email, id FROM leads WHERE mail_status = ? AND email <> ''
		 UNION ALL
		 SELECT email, lead_id FROM send_log WHERE status = ? AND email <> ''`,
		true, string(model.MailSent), string(model.MailSent),
	)
}

func (s *SQLiteStore) SentCompanies(ctx context.Context) (map[string]string, error) {
	return s.owners(ctx,
		`SELECT company, id FROM leads WHERE mail_status = ? AND company <> ''
		 UNION ALL
		 SELECT company, lead_id FROM send_log WHERE status = ? AND company <> ''`,
		false, string(model.MailSent), string(model.MailSent),
	)
}

func (s *SQLiteStore) owners(ctx context.Context, query string, lower bool, args ...any) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query owners")
	}
	defer rows.Close() //nolint:errcheck

	out := make(map[string]string)
	for rows.Next() {
		var value, id string
		if err := rows.Scan(&value, &id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan owner")
		}
		if lower {
			value = model.NormalizeEmail(value)
		}
		addOwner(out, value, id)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: owners iterate")
}

func (s *SQLiteStore) AppendSendLog(ctx context.Context, entry *model.SendLogEntry) error {
	prepareSendLog(entry, time.Now().UTC())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO send_log (`+strings.Join(sendLogColumns, ", ")+`) VALUES (`+placeholders(len(sendLogColumns), false)+`)`,
		sendLogValues(entry)...,
	)
	return eris.Wrapf(err, "sqlite: append send log for lead %s", entry.LeadID)
}

func (s *SQLiteStore) ListSendLog(ctx context.Context, limit int) ([]model.SendLogEntry, error) {
	query := `SELECT ` + strings.Join(sendLogColumns, ", ") + ` FROM send_log ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list send log")
	}
	defer rows.Close() //nolint:errcheck

	var entries []model.SendLogEntry
	for rows.Next() {
		var e model.SendLogEntry
		if err := rows.Scan(sendLogTargets(&e)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan send log")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list send log iterate")
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteLead(row scannable) (*model.Lead, error) {
	var l model.Lead
	var sentAt, followUp sql.NullTime
	if err := row.Scan(leadTargets(&l, &sentAt, &followUp)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}
	if sentAt.Valid {
		t := sentAt.Time
		l.SentAt = &t
	}
	if followUp.Valid {
		t := followUp.Time
		l.FollowUpAt = &t
	}
	return &l, nil
}
