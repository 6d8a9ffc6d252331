package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/moneyzen/money-zen/internal/cli"
	"github.com/moneyzen/money-zen/internal/model"
	"github.com/moneyzen/money-zen/internal/ofx"
	"github.com/moneyzen/money-zen/internal/service"
	"github.com/moneyzen/money-zen/internal/storage"
)

const importBatchSize = 50

func importCmd() *cobra.Command {
	var (
		accountID  string
		categoryID string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Bulk-import transactions from a CSV or OFX/QFX file",
		Long: `Import transactions from a bank export. The file format is detected from
the extension: .csv expects date,amount,description[,type] rows; .ofx and
.qfx are parsed as OFX statements. Rows already present (same date, amount,
and description) are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			records, err := readImportFile(args[0], accountID, categoryID)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println(cli.InfoStyle.Render("Nothing to import."))
				return nil
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			summary, err := importWithProgress(ctx, store, records)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d transaction(s), skipped %d duplicate(s)",
				summary.Imported, summary.Skipped)))
			for _, e := range summary.Errors {
				fmt.Println(cli.FormatWarning(e))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID to book imported transactions against (required)")
	cmd.Flags().StringVar(&categoryID, "category", "", "Category ID for imported transactions (required)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func readImportFile(path, accountID, categoryID string) ([]service.ImportRecord, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".ofx" && ext != ".qfx" {
		return nil, fmt.Errorf("unsupported import format %q (expected .csv, .ofx, or .qfx)", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	if ext == ".csv" {
		return readCSV(f, accountID, categoryID)
	}
	return ofx.NewReader().Read(f, accountID, categoryID)
}

// readCSV parses date,amount,description[,type] rows. A header row is
// skipped when its first column does not parse as a date. A missing type
// column falls back to the sign of the amount.
func readCSV(r io.Reader, accountID, categoryID string) ([]service.ImportRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	var records []service.ImportRecord
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("row %d: expected at least 3 columns, got %d", i+1, len(row))
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			if i == 0 {
				// Header row
				continue
			}
			return nil, fmt.Errorf("row %d: invalid amount %q", i+1, row[1])
		}

		txType := model.TypeIncome
		if amount < 0 {
			amount = -amount
			txType = model.TypeExpense
		}
		if len(row) > 3 {
			txType = model.TransactionType(strings.TrimSpace(row[3]))
			if err := txType.Validate(); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}

		records = append(records, service.ImportRecord{
			AccountID:   accountID,
			CategoryID:  categoryID,
			DateText:    strings.TrimSpace(row[0]),
			Amount:      amount,
			Description: strings.TrimSpace(row[2]),
			Type:        txType,
		})
	}

	return records, nil
}

// importWithProgress runs the import in batches so the progress bar tracks
// actual database work. Batch summaries are merged into one.
func importWithProgress(ctx context.Context, store *storage.SQLiteStore, records []service.ImportRecord) (*service.ImportSummary, error) {
	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Importing transactions..."),
	)

	total := &service.ImportSummary{}
	for start := 0; start < len(records); start += importBatchSize {
		end := start + importBatchSize
		if end > len(records) {
			end = len(records)
		}

		summary, err := store.ImportTransactions(ctx, records[start:end])
		if err != nil {
			return nil, fmt.Errorf("import failed: %w", err)
		}

		total.Imported += summary.Imported
		total.Skipped += summary.Skipped
		for _, e := range summary.Errors {
			total.Errors = append(total.Errors, fmt.Sprintf("batch at row %d: %s", start+1, e))
		}
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	return total, nil
}
