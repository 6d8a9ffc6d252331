package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneyzen/money-zen/internal/model"
)

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"date,amount,description,type",
		"2026-01-05,-42.50,Supermarket,expense",
		"2026-01-07,1500.00,Payroll,income",
		"2026-01-09,-10.00,Coffee",
	}, "\n")

	records, err := readCSV(strings.NewReader(input), "acct-1", "cat-1")
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "acct-1", records[0].AccountID)
	assert.Equal(t, "cat-1", records[0].CategoryID)
	assert.Equal(t, "2026-01-05", records[0].DateText)
	assert.Equal(t, "Supermarket", records[0].Description)
	assert.Equal(t, model.TypeExpense, records[0].Type)
	assert.InDelta(t, 42.50, records[0].Amount, 0.001)

	assert.Equal(t, model.TypeIncome, records[1].Type)
	assert.InDelta(t, 1500.00, records[1].Amount, 0.001)

	// No type column: the sign decides.
	assert.Equal(t, model.TypeExpense, records[2].Type)
	assert.InDelta(t, 10.00, records[2].Amount, 0.001)
}

func TestReadCSVWithoutHeader(t *testing.T) {
	input := "2026-02-01,25.00,Found cash,income\n"

	records, err := readCSV(strings.NewReader(input), "acct-1", "cat-1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Found cash", records[0].Description)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"too few columns", "2026-01-05,-42.50\n"},
		{"bad amount past header", "date,amount,description\n2026-01-05,abc,Thing\n"},
		{"bad type column", "2026-01-05,-42.50,Thing,transfer\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readCSV(strings.NewReader(tt.input), "acct-1", "cat-1")
			assert.Error(t, err)
		})
	}
}

func TestReadImportFileRejectsUnknownExtension(t *testing.T) {
	_, err := readImportFile("statement.pdf", "acct-1", "cat-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported import format")
}
