package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.TODO(), nil, "leads", []string{"id", "company"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"leads"}, []string{"id", "company"}).WillReturnResult(3)

	rows := [][]any{{"l1", "Acme"}, {"l2", "Beta"}, {"l3", "Gamma"}}
	n, err := CopyFrom(context.Background(), mock, "leads", []string{"id", "company"}, rows)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"leads"}, []string{"id", "company"}).
		WillReturnError(fmt.Errorf("duplicate key value violates unique constraint"))

	_, err = CopyFrom(context.Background(), mock, "leads", []string{"id", "company"}, [][]any{{"l1", "Acme"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO leads")
	assert.NoError(t, mock.ExpectationsWereMet())
}
