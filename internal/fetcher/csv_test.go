package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectRows(t *testing.T, rowCh <-chan []string, errCh <-chan error) [][]string {
	t.Helper()
	var rows [][]string
	for row := range rowCh {
		rows = append(rows, row)
	}
	require.NoError(t, <-errCh)
	return rows
}

func TestStreamCSVBasic(t *testing.T) {
	input := "a,b,c\n1,2,3\n4,5,6\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows := collectRows(t, rowCh, errCh)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b", "c"}, rows[0])
	assert.Equal(t, []string{"4", "5", "6"}, rows[2])
}

func TestStreamCSVHeader(t *testing.T) {
	input := "Company,CRD\nAcme Wealth,12345\n"
	headerCh := make(chan []string, 1)
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
	})
	rows := collectRows(t, rowCh, errCh)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Acme Wealth", "12345"}, rows[0])
	assert.Equal(t, []string{"Company", "CRD"}, <-headerCh)
}

func TestStreamCSVTrimSpace(t *testing.T) {
	input := " a , b \n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{TrimSpace: true})
	rows := collectRows(t, rowCh, errCh)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"a", "b"}, rows[0])
}

func TestStreamCSVLatin1(t *testing.T) {
	// "Café" with é encoded as ISO 8859-1 byte 0xE9.
	input := []byte{'C', 'a', 'f', 0xE9, ',', 'x', '\n'}
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(string(input)), CSVOptions{Latin1: true})
	rows := collectRows(t, rowCh, errCh)
	require.Len(t, rows, 1)
	assert.Equal(t, "Café", rows[0][0])
}

func TestStreamCSVVariableFields(t *testing.T) {
	input := "a,b,c\n1,2\n"
	rowCh, errCh := StreamCSV(context.Background(), strings.NewReader(input), CSVOptions{})
	rows := collectRows(t, rowCh, errCh)
	require.Len(t, rows, 2)
	assert.Len(t, rows[1], 2)
}

func TestStreamCSVCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rowCh, errCh := StreamCSV(ctx, strings.NewReader("a,b\nc,d\n"), CSVOptions{})
	for range rowCh {
	}
	assert.Error(t, <-errCh)
}
