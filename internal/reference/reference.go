// Package reference loads the read-only reference lists a batch is gated
// against: the do-not-contact list and the recent-contacts list.
package reference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/cooldown"
	"github.com/sells-group/outreach-cli/internal/eligibility"
	"github.com/sells-group/outreach-cli/internal/fetcher"
	"github.com/sells-group/outreach-cli/internal/model"
)

// DNCSheet is the worksheet holding the do-not-contact list.
const DNCSheet = "Niet Benaderen"

// ErrMissingDNC is returned when no do-not-contact list is configured or
// the file does not exist. Gated stages must not run without one.
var ErrMissingDNC = eris.New("reference: do-not-contact list missing")

// Recent-contacts column positions used when the sheet has no usable header.
const (
	fallbackCompanyCol = 2
	fallbackDateCol    = 5
	fallbackTypeCol    = 10
)

// ValidationError describes a reference row that was skipped.
type ValidationError struct {
	Source string
	Row    int // 1-based, header is row 1
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s row %d: %s: %s", e.Source, e.Row, e.Field, e.Reason)
}

// Report summarizes one loaded list.
type Report struct {
	Source  string
	Rows    int
	Loaded  int
	Skipped []*ValidationError
}

func (r *Report) skip(row int, field, reason string) {
	r.Skipped = append(r.Skipped, &ValidationError{Source: r.Source, Row: row, Field: field, Reason: reason})
}

func (r *Report) log() {
	zap.L().Info("reference list loaded",
		zap.String("source", r.Source),
		zap.Int("rows", r.Rows),
		zap.Int("loaded", r.Loaded),
		zap.Int("skipped", len(r.Skipped)),
	)
	for _, v := range r.Skipped {
		zap.L().Debug("reference row skipped", zap.Error(v))
	}
}

// Loader reads both reference lists for a batch.
type Loader struct {
	DNCPath    string
	RecentPath string
	Fetcher    fetcher.Fetcher // for http(s) sources
}

// Load reads the DNC and recent-contacts lists concurrently. A missing DNC
// list is fatal; an unset recent-contacts path yields an empty list.
func (l *Loader) Load(ctx context.Context, now time.Time) (eligibility.References, error) {
	var refs eligibility.References
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		names, rep, err := LoadDNC(gctx, l.DNCPath, l.Fetcher)
		if err != nil {
			return err
		}
		rep.log()
		refs.DNC = names
		return nil
	})

	g.Go(func() error {
		if l.RecentPath == "" {
			zap.L().Warn("no recent-contacts list configured, cooldown checks disabled")
			return nil
		}
		recent, rep, err := LoadRecent(gctx, l.RecentPath, now, l.Fetcher)
		if err != nil {
			return err
		}
		rep.log()
		refs.Recent = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return eligibility.References{}, err
	}
	return refs, nil
}

// LoadDNC reads the raw company names of the do-not-contact list. xlsx
// files are read from the "Niet Benaderen" sheet, column "Bedrijf"; csv
// files use the "Bedrijf" column or else the first column.
func LoadDNC(ctx context.Context, src string, f fetcher.Fetcher) ([]string, *Report, error) {
	if err := checkSource(src); err != nil {
		if errors.Is(err, os.ErrNotExist) || src == "" {
			return nil, nil, eris.Wrapf(ErrMissingDNC, "path %q", src)
		}
		return nil, nil, err
	}

	opts := fetcher.ReadOptions{Fetcher: f}
	if strings.HasSuffix(strings.ToLower(urlPath(src)), ".xlsx") {
		opts.SheetName = DNCSheet
	}
	tbl, err := fetcher.ReadTable(ctx, src, opts)
	if err != nil {
		return nil, nil, eris.Wrap(err, "reference: read dnc list")
	}

	col := tbl.Col("Bedrijf")
	if col < 0 {
		if opts.SheetName != "" {
			return nil, nil, eris.Errorf("reference: column %q not found in %s (found %v)", "Bedrijf", src, tbl.Header)
		}
		col = 0
	}

	rep := &Report{Source: src, Rows: len(tbl.Rows)}
	var names []string
	for i, row := range tbl.Rows {
		name := fetcher.Cell(row, col)
		if name == "" {
			rep.skip(i+2, "Bedrijf", "empty company")
			continue
		}
		names = append(names, name)
	}
	rep.Loaded = len(names)
	return names, rep, nil
}

// LoadRecent reads the recent-contacts list, grouping contact moments by
// company in order of first appearance. Columns are found by the headers
// "Bedrijf", "Datum" and "Type", falling back to positions 3, 6 and 11.
func LoadRecent(ctx context.Context, src string, now time.Time, f fetcher.Fetcher) ([]model.RecentContact, *Report, error) {
	if err := checkSource(src); err != nil {
		return nil, nil, eris.Wrap(err, "reference: recent contacts")
	}
	tbl, err := fetcher.ReadTable(ctx, src, fetcher.ReadOptions{Fetcher: f})
	if err != nil {
		return nil, nil, eris.Wrap(err, "reference: read recent contacts")
	}

	companyCol, dateCol, typeCol := tbl.Col("Bedrijf"), tbl.Col("Datum"), typeColumn(tbl.Header)
	if companyCol < 0 || dateCol < 0 || typeCol < 0 {
		companyCol, dateCol, typeCol = fallbackCompanyCol, fallbackDateCol, fallbackTypeCol
	}

	rep := &Report{Source: src, Rows: len(tbl.Rows)}
	var out []model.RecentContact
	byKey := make(map[string]int)

	for i, row := range tbl.Rows {
		rowNum := i + 2
		company := fetcher.Cell(row, companyCol)
		if company == "" {
			rep.skip(rowNum, "Bedrijf", "empty company")
			continue
		}
		rawDate := fetcher.Cell(row, dateCol)
		if rawDate == "" {
			rep.skip(rowNum, "Datum", "empty date")
			continue
		}
		date, err := ParseDate(rawDate, now)
		if err != nil {
			rep.skip(rowNum, "Datum", err.Error())
			continue
		}
		tags := cooldown.ParseTags(fetcher.Cell(row, typeCol))
		if len(tags) == 0 {
			rep.skip(rowNum, "Type", "no contact type")
			continue
		}

		key := strings.ToLower(company)
		idx, ok := byKey[key]
		if !ok {
			idx = len(out)
			byKey[key] = idx
			out = append(out, model.RecentContact{Company: company})
		}
		out[idx].Moments = append(out[idx].Moments, model.ContactMoment{Date: date, Tags: tags})
		rep.Loaded++
	}
	return out, rep, nil
}

// typeColumn finds the contact-type column, whose header usually carries a
// suffix such as "Type (aantal punten)".
func typeColumn(header []string) int {
	for i, h := range header {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(h)), "type") {
			return i
		}
	}
	return -1
}

// checkSource verifies a local source exists. URLs are checked on download.
func checkSource(src string) error {
	if src == "" {
		return eris.New("no path configured")
	}
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return nil
	}
	if _, err := os.Stat(src); err != nil {
		return eris.Wrapf(err, "stat %s", src)
	}
	return nil
}

func urlPath(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		return s[:i]
	}
	return s
}
