// Package fetcher reads the tabular inputs of the outreach tool: reference
// lists and ledger exports kept as xlsx or csv files, locally or behind a URL.
package fetcher

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads remote files.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Table is a parsed sheet: the first non-empty row is the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Col returns the index of the first header matching one of names
// (case-insensitive, trimmed), or -1.
func (t *Table) Col(names ...string) int {
	for _, name := range names {
		for i, h := range t.Header {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
				return i
			}
		}
	}
	return -1
}

// Cell returns row[i] trimmed, or "" when the row is too short or i < 0.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadOptions selects what ReadTable parses.
type ReadOptions struct {
	SheetName string // xlsx only; empty means the first sheet
	Delimiter rune   // csv only; 0 sniffs ',' or ';' from the header line
	Fetcher   Fetcher
}

// ReadTable reads an xlsx or csv file into a Table. src may be a local path
// or an http(s) URL, which is downloaded through opts.Fetcher first.
func ReadTable(ctx context.Context, src string, opts ReadOptions) (*Table, error) {
	path := src
	if isURL(src) {
		if opts.Fetcher == nil {
			return nil, eris.Errorf("fetcher: no http fetcher configured for %s", src)
		}
		tmp, err := os.CreateTemp("", "outreach-*"+filepath.Ext(urlPath(src)))
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: create temp file")
		}
		_ = tmp.Close()
		defer os.Remove(tmp.Name()) //nolint:errcheck
		if _, err := opts.Fetcher.DownloadToFile(ctx, src, tmp.Name()); err != nil {
			return nil, eris.Wrapf(err, "fetcher: download %s", src)
		}
		path = tmp.Name()
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = ReadXLSX(path, XLSXOptions{SheetName: opts.SheetName})
	case ".csv", ".txt":
		rows, err = readCSVFile(ctx, path, opts.Delimiter)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return toTable(rows), nil
}

func readCSVFile(ctx context.Context, path string, delim rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck
	return ReadCSV(ctx, f, CSVOptions{Delimiter: delim, TrimSpace: true})
}

func toTable(rows [][]string) *Table {
	t := &Table{}
	for i, row := range rows {
		if blank(row) {
			continue
		}
		t.Header = row
		for _, r := range rows[i+1:] {
			if !blank(r) {
				t.Rows = append(t.Rows, r)
			}
		}
		break
	}
	return t
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func urlPath(s string) string {
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return s
}
