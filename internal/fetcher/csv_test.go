package fetcher

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	rows, err := ReadCSV(context.Background(), strings.NewReader("a,b,c\n1,2,3\n"), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"1", "2", "3"}, rows[1])
}

func TestReadCSV_SniffsSemicolon(t *testing.T) {
	input := "Bedrijf;Datum;Type\nAcme, Inc;01-02-2026;Gemaild\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Acme, Inc", "01-02-2026", "Gemaild"}, rows[1])
}

func TestReadCSV_StripsBOM(t *testing.T) {
	rows, err := ReadCSV(context.Background(), strings.NewReader("\xef\xbb\xbfBedrijf\nAcme\n"), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Bedrijf", rows[0][0])
}

func TestReadCSV_TrimAndRagged(t *testing.T) {
	input := " a , b \n1\n"
	rows, err := ReadCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"1"}, rows[1])
}

func TestReadCSV_ExplicitDelimiter(t *testing.T) {
	rows, err := ReadCSV(context.Background(), strings.NewReader("a|b\n"), CSVOptions{Delimiter: '|'})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestReadCSV_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadCSV(ctx, strings.NewReader("a\n"), CSVOptions{})
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ';', []string{"Bedrijf", "Datum"}, [][]string{{"Acme", "01-02-2026"}}))
	assert.Equal(t, "Bedrijf;Datum\nAcme;01-02-2026\n", buf.String())
}
