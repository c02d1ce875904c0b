package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool, for ledgers shared by
// several consultants.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresLeadTable = `(
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	sent_at        TIMESTAMPTZ,
	follow_up_at   TIMESTAMPTZ,
	reply_received BOOLEAN NOT NULL DEFAULT false,
	annotation     TEXT NOT NULL DEFAULT '',
	consultant     TEXT NOT NULL DEFAULT '',
	branch         TEXT NOT NULL DEFAULT '',
	contact_type   TEXT NOT NULL DEFAULT '',
	cases          TEXT NOT NULL DEFAULT '',
	channel        TEXT NOT NULL DEFAULT '',
	request_id     TEXT NOT NULL DEFAULT '',
	contact_id     TEXT NOT NULL DEFAULT '',
	shown          BOOLEAN NOT NULL DEFAULT false,
	message        TEXT NOT NULL DEFAULT '',
	tokens_used    BIGINT NOT NULL DEFAULT 0,
	cooldown_days  INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	seq            BIGSERIAL`

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads ` + postgresLeadTable + `
);

CREATE TABLE IF NOT EXISTS archived_leads ` + postgresLeadTable + `,
	archived_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	archive_reason TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS send_log (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
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
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_contact_id ON leads(contact_id) WHERE contact_id <> '';
CREATE INDEX IF NOT EXISTS idx_leads_mail_status ON leads(mail_status);
CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_send_log_status ON send_log(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var pgLeadCols = strings.Join(leadColumns, ", ")

func (s *PostgresStore) InsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, len(leads))
	for i := range leads {
		prepareInsert(&leads[i], now)
		rows[i] = leadValues(&leads[i])
	}
	n, err := db.CopyFrom(ctx, s.pool, "leads", leadColumns, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: insert leads")
	}
	return int(n), nil
}

func (s *PostgresStore) ImportLeads(ctx context.Context, leads []model.Lead) (int, error) {
	now := time.Now().UTC()
	rows := make([][]any, len(leads))
	for i := range leads {
		prepareInsert(&leads[i], now)
		rows[i] = leadValues(&leads[i])
	}
	n, err := db.Merge(ctx, s.pool, db.MergeSpec{
		Table:    "leads",
		Columns:  leadColumns,
		Key:      []string{"id"},
		Preserve: []string{"created_at"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import leads")
	}
	return int(n), nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	var l model.Lead
	err := s.pool.QueryRow(ctx,
		`SELECT `+pgLeadCols+` FROM leads WHERE id = $1`, id,
	).Scan(leadTargets(&l, &l.SentAt, &l.FollowUpAt)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return &l, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter Filter) ([]model.Lead, error) {
	query := `SELECT ` + pgLeadCols + ` FROM leads WHERE true`
	args := []any{}
	argIdx := 1

	add := func(clause string, v any) {
		query += fmt.Sprintf(clause, argIdx)
		args = append(args, v)
		argIdx++
	}
	if filter.EnrichStatus != "" {
		add(` AND enrich_status = $%d`, string(filter.EnrichStatus))
	}
	if filter.AIStatus != "" {
		add(` AND ai_status = $%d`, string(filter.AIStatus))
	}
	if filter.MailStatus != "" {
		add(` AND mail_status = $%d`, string(filter.MailStatus))
	}
	if filter.Consultant != "" {
		add(` AND consultant = $%d`, filter.Consultant)
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		add(` LIMIT $%d`, filter.Limit)
		if filter.Offset > 0 {
			add(` OFFSET $%d`, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(leadTargets(&l, &l.SentAt, &l.FollowUpAt)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) UpdateLead(ctx context.Context, lead *model.Lead) error {
	lead.UpdatedAt = time.Now().UTC()
	lead.Email = model.NormalizeEmail(lead.Email)
	sets, n := updateAssignments(true)
	args := append(updateValues(lead), lead.ID)

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`UPDATE leads SET %s WHERE id = $%d`, sets, n+1), args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", lead.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", lead.ID)
	}
	return nil
}

func (s *PostgresStore) Archive(ctx context.Context, id, reason string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin archive")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx,
		`INSERT INTO archived_leads (`+pgLeadCols+`, archived_at, archive_reason)
		 SELECT `+pgLeadCols+`, now(), $1 FROM leads WHERE id = $2`,
		reason, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: archive lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id); err != nil {
		return eris.Wrapf(err, "postgres: remove archived lead %s", id)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit archive")
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: lead %s", id)
	}
	return nil
}

func (s *PostgresStore) ContactIDs(ctx context.Context) (map[string]string, error) {
	return s.owners(ctx, `SELECT contact_id, id FROM leads WHERE contact_id <> '' ORDER BY seq`, false)
}

func (s *PostgresStore) SentEmails(ctx context.Context) (map[string]string, error) {
	return s.owners(ctx,
		`SELECT email, id FROM leads WHERE mail_status = $1 AND email <> ''
		 UNION ALL
		 SELECT email, lead_id FROM send_log WHERE status = $1 AND email <> ''`,
		true, string(model.MailSent),
	)
}

func (s *PostgresStore) SentCompanies(ctx context.Context) (map[string]string, error) {
	return s.owners(ctx,
		`SELECT company, id FROM leads WHERE mail_status = $1 AND company <> ''
		 UNION ALL
		 SELECT company, lead_id FROM send_log WHERE status = $1 AND company <> ''`,
		false, string(model.MailSent),
	)
}

func (s *PostgresStore) owners(ctx context.Context, query string, lower bool, args ...any) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query owners")
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var value, id string
		if err := rows.Scan(&value, &id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan owner")
		}
		if lower {
			value = model.NormalizeEmail(value)
		}
		addOwner(out, value, id)
	}
	return out, eris.Wrap(rows.Err(), "postgres: owners iterate")
}

func (s *PostgresStore) AppendSendLog(ctx context.Context, entry *model.SendLogEntry) error {
	prepareSendLog(entry, time.Now().UTC())
	_, err := s.pool.Exec(ctx,
		`INSERT INTO send_log (`+strings.Join(sendLogColumns, ", ")+`) VALUES (`+placeholders(len(sendLogColumns), true)+`)`,
		sendLogValues(entry)...,
	)
	return eris.Wrapf(err, "postgres: append send log for lead %s", entry.LeadID)
}

func (s *PostgresStore) ListSendLog(ctx context.Context, limit int) ([]model.SendLogEntry, error) {
	query := `SELECT ` + strings.Join(sendLogColumns, ", ") + ` FROM send_log ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list send log")
	}
	defer rows.Close()

	var entries []model.SendLogEntry
	for rows.Next() {
		var e model.SendLogEntry
		if err := rows.Scan(sendLogTargets(&e)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan send log")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list send log iterate")
}
