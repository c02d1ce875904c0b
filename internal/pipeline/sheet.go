package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/ledger"
	"github.com/sells-group/outreach-cli/internal/model"
)

// ImportResult counts an import run.
type ImportResult struct {
	Updated  int
	Inserted int
	Invalid  []error
}

// Import reads the shared sheet and upserts its rows. Rows are matched to
// existing leads by provider contact id; unmatched rows become new leads.
func (p *Pipeline) Import(ctx context.Context, path string) (*ImportResult, error) {
	leads, rowErrs, err := ledger.ReadSheet(ctx, path)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Invalid: rowErrs}
	for _, e := range rowErrs {
		zap.L().Warn("pipeline: invalid sheet row", zap.Error(e))
	}

	owners, err := p.store.ContactIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load contact ids")
	}

	var upserts, inserts []model.Lead
	for _, l := range leads {
		if id, ok := owners[l.ContactID]; ok && l.ContactID != "" {
			existing, err := p.store.GetLead(ctx, id)
			if err != nil {
				return nil, eris.Wrapf(err, "pipeline: load lead %s", id)
			}
			l.ID = existing.ID
			l.CreatedAt = existing.CreatedAt
			upserts = append(upserts, l)
			continue
		}
		l.ID = newID()
		if l.ContactID != "" {
			owners[l.ContactID] = l.ID
		}
		inserts = append(inserts, l)
	}

	if res.Updated, err = p.store.ImportLeads(ctx, upserts); err != nil {
		return nil, err
	}
	if res.Inserted, err = p.store.InsertLeads(ctx, inserts); err != nil {
		return nil, err
	}
	zap.L().Info("pipeline: import complete",
		zap.String("path", path),
		zap.Int("updated", res.Updated),
		zap.Int("inserted", res.Inserted),
		zap.Int("invalid", len(rowErrs)),
	)
	return res, nil
}

// Export writes every active lead to path in the shared sheet layout. The
// extension picks the format: .csv or .xlsx.
func (p *Pipeline) Export(ctx context.Context, path string) (int, error) {
	leads, err := p.store.ListLeads(ctx, ledger.Filter{})
	if err != nil {
		return 0, eris.Wrap(err, "pipeline: list leads")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return 0, eris.Wrap(err, "pipeline: create export")
		}
		defer f.Close() //nolint:errcheck
		rows := make([][]string, len(leads))
		for i := range leads {
			rows[i] = ledger.SheetRow(&leads[i])
		}
		if err := fetcher.WriteCSV(f, ',', ledger.SheetColumns, rows); err != nil {
			return 0, err
		}
	case ".xlsx", "":
		if err := ledger.WriteSheet(path, leads); err != nil {
			return 0, err
		}
	default:
		return 0, eris.Errorf("pipeline: unsupported export format %q", filepath.Ext(path))
	}

	zap.L().Info("pipeline: export complete", zap.String("path", path), zap.Int("leads", len(leads)))
	return len(leads), nil
}
