package reference

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func writeXLSX(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	if sheet != "Overzicht" {
		_, err := f.AddSheet("Overzicht")
		require.NoError(t, err)
	}
	sh, err := f.AddSheet(sheet)
	require.NoError(t, err)
	for _, r := range rows {
		row := sh.AddRow()
		for _, c := range r {
			row.AddCell().SetString(c)
		}
	}
	path := filepath.Join(t.TempDir(), "list.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDNC_XLSX(t *testing.T) {
	path := writeXLSX(t, DNCSheet, [][]string{
		{"Nr", "Bedrijf"},
		{"1", "Beta Corp B.V."},
		{"2", ""},
		{"3", "Melkweg|Fritom"},
	})

	names, rep, err := LoadDNC(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Corp B.V.", "Melkweg|Fritom"}, names)
	assert.Equal(t, 3, rep.Rows)
	assert.Equal(t, 2, rep.Loaded)
	require.Len(t, rep.Skipped, 1)
	assert.Equal(t, 3, rep.Skipped[0].Row)
	assert.Contains(t, rep.Skipped[0].Error(), "empty company")
}

func TestLoadDNC_XLSXMissingColumn(t *testing.T) {
	path := writeXLSX(t, DNCSheet, [][]string{{"Naam"}, {"Beta"}})
	_, _, err := LoadDNC(context.Background(), path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bedrijf")
}

func TestLoadDNC_XLSXMissingSheet(t *testing.T) {
	path := writeXLSX(t, "Blad1", [][]string{{"Bedrijf"}, {"Beta"}})
	_, _, err := LoadDNC(context.Background(), path, nil)
	assert.Error(t, err)
}

func TestLoadDNC_CSVFirstColumn(t *testing.T) {
	path := writeFile(t, "dnc.csv", "Naam;Reden\nBeta Corp;klant\nGamma;concurrent\n")
	names, _, err := LoadDNC(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Corp", "Gamma"}, names)
}

func TestLoadDNC_CSVBedrijfColumn(t *testing.T) {
	path := writeFile(t, "dnc.csv", "Nr,Bedrijf\n1,Beta Corp\n")
	names, _, err := LoadDNC(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Corp"}, names)
}

func TestLoadDNC_MissingIsFatal(t *testing.T) {
	_, _, err := LoadDNC(context.Background(), filepath.Join(t.TempDir(), "nope.xlsx"), nil)
	assert.ErrorIs(t, err, ErrMissingDNC)

	_, _, err = LoadDNC(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrMissingDNC)
}

func TestLoadRecent_Headers(t *testing.T) {
	path := writeFile(t, "recent.csv", strings.Join([]string{
		"Bedrijf;Datum;Type (aantal punten)",
		"Acme B.V.;06-02-2026;Gemaild (1)",
		`ACME B.V.;01-03-2025;"Gesprek (5); Gebeld"`,
		"Beta;;Gemaild",
		"Gamma;gisteren;Gebeld",
		"Delta;01-01-2026;#REF!",
		";01-01-2026;Gebeld",
		"Epsilon;2026-01-15;Gebeld",
	}, "\n"))

	recent, rep, err := LoadRecent(context.Background(), path, now, nil)
	require.NoError(t, err)
	require.Len(t, recent, 2)

	assert.Equal(t, "Acme B.V.", recent[0].Company, "first spelling is kept")
	require.Len(t, recent[0].Moments, 2)
	assert.Equal(t, day(2026, 2, 6), recent[0].Moments[0].Date)
	assert.Equal(t, []string{"gemaild"}, recent[0].Moments[0].Tags)
	assert.ElementsMatch(t, []string{"gesprek", "gebeld"}, recent[0].Moments[1].Tags)
	assert.Equal(t, "Epsilon", recent[1].Company)

	assert.Equal(t, 7, rep.Rows)
	assert.Equal(t, 3, rep.Loaded)
	require.Len(t, rep.Skipped, 4)
	fields := []string{rep.Skipped[0].Field, rep.Skipped[1].Field, rep.Skipped[2].Field, rep.Skipped[3].Field}
	assert.Equal(t, []string{"Datum", "Datum", "Type", "Bedrijf"}, fields)
}

func TestLoadRecent_FallbackPositions(t *testing.T) {
	header := []string{"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K"}
	row := make([]string, 11)
	row[2] = "Acme"
	row[5] = "01-03-2026"
	row[10] = "Afspraak"
	path := writeXLSX(t, "Overzicht", [][]string{header, row})

	recent, _, err := LoadRecent(context.Background(), path, now, nil)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "Acme", recent[0].Company)
	assert.Equal(t, []string{"afspraak"}, recent[0].Moments[0].Tags)
}

func TestLoadRecent_Missing(t *testing.T) {
	_, _, err := LoadRecent(context.Background(), filepath.Join(t.TempDir(), "nope.csv"), now, nil)
	assert.Error(t, err)
}

func TestLoader_Load(t *testing.T) {
	l := &Loader{
		DNCPath:    writeFile(t, "dnc.csv", "Bedrijf\nBeta Corp\n"),
		RecentPath: writeFile(t, "recent.csv", "Bedrijf,Datum,Type\nAcme,01-03-2026,Gemaild\n"),
	}
	refs, err := l.Load(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta Corp"}, refs.DNC)
	require.Len(t, refs.Recent, 1)
	assert.Equal(t, "Acme", refs.Recent[0].Company)
}

func TestLoader_Load_NoRecent(t *testing.T) {
	l := &Loader{DNCPath: writeFile(t, "dnc.csv", "Bedrijf\nBeta Corp\n")}
	refs, err := l.Load(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, refs.Recent)
}

func TestLoader_Load_NoDNC(t *testing.T) {
	l := &Loader{RecentPath: writeFile(t, "recent.csv", "Bedrijf,Datum,Type\n")}
	_, err := l.Load(context.Background(), now)
	assert.ErrorIs(t, err, ErrMissingDNC)
}
