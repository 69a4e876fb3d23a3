package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadTransactionCSV_ParsesBlankLineSeparatedTransactions(t *testing.T) {
	path := writeCSV(t, "1,2,5.0\n2,1,3.0\n\n1,1,2.0\n")

	txns, err := loadTransactionCSV(path)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	require.Len(t, txns[0].Items, 2)
	require.Equal(t, int64(1), txns[0].Items[0].ID)
	require.Equal(t, 2, txns[0].Items[0].Quantity)
	require.InDelta(t, 5.0, txns[0].Items[0].UnitUtility, 1e-9)
	require.Len(t, txns[1].Items, 1)
}

func TestLoadTransactionCSV_TrailingBlockWithoutFinalBlankLine(t *testing.T) {
	path := writeCSV(t, "1,1,1.0")

	txns, err := loadTransactionCSV(path)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestLoadTransactionCSV_RejectsMalformedRow(t *testing.T) {
	path := writeCSV(t, "1,1\n")

	_, err := loadTransactionCSV(path)
	require.Error(t, err)
}

func TestLoadTransactionCSV_MissingFile(t *testing.T) {
	_, err := loadTransactionCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
