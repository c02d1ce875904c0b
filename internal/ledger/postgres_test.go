package ledger

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS leads`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertLeads_Copy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"leads"}, leadColumns).
		WillReturnResult(2)

	leads := []model.Lead{testLead("Acme", "c1"), testLead("Beta Corp", "c2")}
	n, err := s.InsertLeads(context.Background(), leads)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotEmpty(t, leads[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ImportLeads_Merge(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_merge_leads"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_merge_leads"}, leadColumns).WillReturnResult(1)
	mock.ExpectExec(`ON CONFLICT \("id"\) DO UPDATE SET "company" = EXCLUDED."company"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	l := testLead("Acme", "c1")
	l.ID = "l1"
	n, err := s.ImportLeads(context.Background(), []model.Lead{l})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, company, .* FROM leads WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetLead(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListLeads_FilterArgs(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM leads WHERE true AND mail_status = \$1 AND consultant = \$2 ORDER BY seq LIMIT \$3`).
		WithArgs("PENDING", "Sanne", 10).
		WillReturnRows(pgxmock.NewRows(leadColumns))

	leads, err := s.ListLeads(context.Background(), Filter{
		MailStatus: model.MailPending,
		Consultant: "Sanne",
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Empty(t, leads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateLead_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE leads SET company = \$1, .* WHERE id = \$27`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	l := testLead("Acme", "c1")
	l.ID = "missing"
	err := s.UpdateLead(context.Background(), &l)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Archive(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO archived_leads`).
		WithArgs("BLOCKED_DNC", "l1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs("l1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Archive(context.Background(), "l1", "BLOCKED_DNC"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Archive_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO archived_leads`).
		WithArgs("BLOCKED_DNC", "missing").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectRollback()

	err := s.Archive(context.Background(), "missing", "BLOCKED_DNC")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Delete(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM leads WHERE id = \$1`).
		WithArgs("l1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.Delete(context.Background(), "l1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SentEmails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT email, id FROM leads WHERE mail_status = \$1`).
		WithArgs("SENT").
		WillReturnRows(pgxmock.NewRows([]string{"email", "id"}).
			AddRow("Jan@Acme.nl", "l1").
			AddRow("jan@acme.nl", "old").
			AddRow("piet@beta.nl", "l2"))

	got, err := s.SentEmails(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"jan@acme.nl": "l1", "piet@beta.nl": "l2"}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendSendLog(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO send_log`).
		WithArgs(pgxmock.AnyArg(), "l1", "jan@acme.nl", "Acme", "", "", "", "", "SENT", "<m1>", "", "", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AppendSendLog(context.Background(), &model.SendLogEntry{
		LeadID: "l1", Email: "Jan@Acme.nl", Company: "Acme", Status: model.MailSent, MessageID: "<m1>",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
