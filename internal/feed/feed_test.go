package feed

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintward/internal/core"
)

const sampleExport = `Date,Description,Original Description,Amount,Transaction Type,Category,Account Name
2/05/2021,STARBUCKS,STARBUCKS #123,5.75,debit,Coffee Shops,Checking
2/15/2021,ACME PAYROLL,ACME CORP PAYROLL,2000.00,credit,Paycheck,Checking
2021-02-20,VANGUARD BUY,VANGUARD,500.00,debit,Transfer,Brokerage
`

func TestParse(t *testing.T) {
	txs, err := Parse(strings.NewReader(sampleExport))
	require.NoError(t, err)
	require.Len(t, txs, 3)

	// Debit magnitudes come out negative.
	assert.Equal(t, int64(-575), txs[0].Amount.Cents)
	assert.Equal(t, core.Debit, txs[0].Type)
	assert.Equal(t, "STARBUCKS", txs[0].Description)
	assert.Equal(t, "Coffee Shops", txs[0].RawCategory)
	assert.Equal(t, core.NewDate(2021, 2, 5), txs[0].Date)

	// Credits stay positive.
	assert.Equal(t, int64(200000), txs[1].Amount.Cents)
	assert.Equal(t, core.Credit, txs[1].Type)

	// ISO dates parse too.
	assert.Equal(t, core.NewDate(2021, 2, 20), txs[2].Date)
}

func TestParseMissingColumn(t *testing.T) {
	csv := "Date,Description,Amount,Category\n2/05/2021,X,1.00,Y\n"
	_, err := Parse(strings.NewReader(csv))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Transaction Type")
}

func TestParseBadRows(t *testing.T) {
	header := "Date,Description,Amount,Transaction Type,Category\n"

	t.Run("bad date", func(t *testing.T) {
		_, err := Parse(strings.NewReader(header + "not-a-date,X,1.00,debit,Y\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidDate)
		assert.Contains(t, err.Error(), "line 2")
	})
	t.Run("bad type", func(t *testing.T) {
		_, err := Parse(strings.NewReader(header + "2/05/2021,X,1.00,refund,Y\n"))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrBadTxType)
	})
	t.Run("bad amount", func(t *testing.T) {
		_, err := Parse(strings.NewReader(header + "2/05/2021,X,one dollar,debit,Y\n"))
		require.Error(t, err)
	})
}

func TestLatestExport(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"transactions.csv",
		"transactions (2).csv",
		"transactions (10).csv",
		"statement.csv",
		"transactions (3).csv.bak",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	got, err := LatestExport(dir)
	require.NoError(t, err)
	// Numeric ordering, not lexical: (10) beats (2).
	assert.Equal(t, filepath.Join(dir, "transactions (10).csv"), got)
}

func TestLatestExportBarePrecedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions (1).csv"), []byte("x"), 0o644))

	got, err := LatestExport(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transactions (1).csv"), got)
}

func TestLatestExportEmpty(t *testing.T) {
	_, err := LatestExport(t.TempDir())
	assert.ErrorIs(t, err, ErrNoExport)
}

func TestRemoveExports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions (4).csv"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "keep.csv"), []byte("x"), 0o644))

	n, err := RemoveExports(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.csv", entries[0].Name())
}

func TestDirSourceLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.csv"), []byte(sampleExport), 0o644))

	txs, err := DirSource{Dir: dir}.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestFileSourceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FileSource{Path: "unused"}.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
