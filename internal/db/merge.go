package db

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// MergeSpec describes a bulk merge into one table.
type MergeSpec struct {
	Table    string   // target table, optionally "schema.table"
	Columns  []string // columns of every row, in row order
	Key      []string // columns of the unique constraint rows are matched on
	Preserve []string // columns an existing row keeps, besides Key
}

func (s MergeSpec) validate() error {
	switch {
	case len(s.Columns) == 0:
		return eris.New("db: merge: no columns")
	case len(s.Key) == 0:
		return eris.New("db: merge: no key columns")
	}
	for _, k := range s.Key {
		if !slices.Contains(s.Columns, k) {
			return eris.Errorf("db: merge: key column %q not in columns", k)
		}
	}
	return nil
}

// updated returns the columns overwritten on conflict.
func (s MergeSpec) updated() []string {
	var cols []string
	for _, c := range s.Columns {
		if !slices.Contains(s.Key, c) && !slices.Contains(s.Preserve, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (s MergeSpec) stagingTable() string {
	return "_merge_" + strings.ReplaceAll(s.Table, ".", "_")
}

// mergeSQL renders the statement that moves the staged rows into the target.
func (s MergeSpec) mergeSQL() string {
	cols := identList(s.Columns)
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s)",
		qualified(s.Table), cols, cols, pgx.Identifier{s.stagingTable()}.Sanitize(), identList(s.Key))

	upd := s.updated()
	if len(upd) == 0 {
		sb.WriteString(" DO NOTHING")
		return sb.String()
	}
	sets := make([]string, len(upd))
	for i, c := range upd {
		id := pgx.Identifier{c}.Sanitize()
		sets[i] = id + " = EXCLUDED." + id
	}
	sb.WriteString(" DO UPDATE SET ")
	sb.WriteString(strings.Join(sets, ", "))
	return sb.String()
}

// Merge inserts rows or, when a row's key already exists, overwrites every
// column outside Key and Preserve. Rows are staged with COPY in a temp table
// that is dropped on commit, so the merge is all or nothing.
func Merge(ctx context.Context, pool Pool, spec MergeSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := spec.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: merge: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	staging := pgx.Identifier{spec.stagingTable()}
	create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		staging.Sanitize(), qualified(spec.Table))
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: merge: stage %s", spec.Table)
	}
	if _, err := tx.CopyFrom(ctx, staging, spec.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: merge: copy %s", spec.Table)
	}

	tag, err := tx.Exec(ctx, spec.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge: %s", spec.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: merge: commit")
	}
	return tag.RowsAffected(), nil
}

func qualified(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func identList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
