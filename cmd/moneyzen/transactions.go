package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/moneyzen/money-zen/internal/cli"
	"github.com/moneyzen/money-zen/internal/model"
	"github.com/moneyzen/money-zen/internal/storage"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "Manage transactions",
		Long:  `List, add, update, delete, and tag the transactions booked against your accounts.`,
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(updateTransactionCmd())
	cmd.AddCommand(deleteTransactionsCmd())
	cmd.AddCommand(tagTransactionCmd())
	cmd.AddCommand(untagTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		month      string
		accountID  string
		categoryID string
		tagID      string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Long:  `List transactions, optionally filtered by month, account, category, tag, or date range.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			txns, err := fetchTransactions(ctx, store, month, accountID, categoryID, tagID, from, to)
			if err != nil {
				return err
			}

			if len(txns) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Date"),
				cli.TableHeaderStyle.Render("Amount"),
				cli.TableHeaderStyle.Render("Description"),
				cli.TableHeaderStyle.Render("ID"))

			for i := range txns {
				t := &txns[i]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					t.Date.Format("2006-01-02"),
					cli.FormatAmount(t.SignedAmount(), ""),
					t.Description,
					cli.SubtleStyle.Render(t.ID))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Filter by month (YYYY-MM)")
	cmd.Flags().StringVar(&accountID, "account", "", "Filter by account ID")
	cmd.Flags().StringVar(&categoryID, "category", "", "Filter by category ID")
	cmd.Flags().StringVar(&tagID, "tag", "", "Filter by tag ID")
	cmd.Flags().StringVar(&from, "from", "", "Range start date (YYYY-MM-DD), requires --to")
	cmd.Flags().StringVar(&to, "to", "", "Range end date (YYYY-MM-DD), requires --from")

	return cmd
}

func fetchTransactions(ctx context.Context, store *storage.SQLiteStore, month, accountID, categoryID, tagID, from, to string) ([]model.Transaction, error) {
	switch {
	case month != "":
		year, m, err := parseMonth(month)
		if err != nil {
			return nil, err
		}
		return store.GetTransactionsByMonth(ctx, year, m)
	case accountID != "":
		return store.GetTransactionsByAccount(ctx, accountID)
	case categoryID != "":
		return store.GetTransactionsByCategory(ctx, categoryID)
	case tagID != "":
		return store.GetTransactionsByTag(ctx, tagID)
	case from != "" || to != "":
		start, err := time.Parse("2006-01-02", from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from date: %w", err)
		}
		end, err := time.Parse("2006-01-02", to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to date: %w", err)
		}
		return store.GetTransactionsByDateRange(ctx, start, end.Add(24*time.Hour-time.Second))
	default:
		return store.GetTransactions(ctx)
	}
}

func parseMonth(text string) (year, month int, err error) {
	parts := strings.SplitN(text, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", text)
	}
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", text)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("invalid month %q, expected YYYY-MM", text)
	}
	return year, month, nil
}

func addTransactionCmd() *cobra.Command {
	var (
		accountID   string
		categoryID  string
		txType      string
		date        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Add a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}

			when := time.Now()
			if date != "" {
				when, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			txn, err := store.CreateTransaction(ctx, accountID, categoryID, amount,
				description, model.TransactionType(txType), when)
			if err != nil {
				return fmt.Errorf("failed to create transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s of %.2f (%s)", txn.Type, txn.Amount, txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID (required)")
	cmd.Flags().StringVar(&categoryID, "category", "", "Category ID (required)")
	cmd.Flags().StringVar(&txType, "type", "expense", "Transaction type (income, expense)")
	cmd.Flags().StringVar(&date, "date", "", "Transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&description, "description", "", "Transaction description")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func updateTransactionCmd() *cobra.Command {
	var (
		accountID   string
		categoryID  string
		txType      string
		date        string
		description string
		amountText  string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a transaction",
		Long:  `Update any field of an existing transaction. Unset flags keep the current value. Account balances are adjusted to match.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			current, err := store.GetTransactionByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}

			if accountID == "" {
				accountID = current.AccountID
			}
			if categoryID == "" {
				categoryID = current.CategoryID
			}
			if txType == "" {
				txType = string(current.Type)
			}
			if description == "" {
				description = current.Description
			}
			amount := current.Amount
			if amountText != "" {
				amount, err = strconv.ParseFloat(amountText, 64)
				if err != nil {
					return fmt.Errorf("invalid --amount: %w", err)
				}
			}
			when := current.Date
			if date != "" {
				when, err = time.Parse("2006-01-02", date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			updated, err := store.UpdateTransaction(ctx, current.ID, accountID, categoryID,
				amount, description, model.TransactionType(txType), when)
			if err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Updated transaction " + updated.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "New account ID")
	cmd.Flags().StringVar(&categoryID, "category", "", "New category ID")
	cmd.Flags().StringVar(&txType, "type", "", "New transaction type")
	cmd.Flags().StringVar(&date, "date", "", "New date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&amountText, "amount", "", "New amount")

	return cmd
}

func deleteTransactionsCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more transactions",
		Long:  `Delete transactions by ID. Account balances are adjusted to match. Each deletion is independent; failures are reported but do not stop the batch.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			// Confirm deletion
			if !force {
				fmt.Printf("Delete %d transaction(s)? (y/N): ", len(args))
				var response string
				fmt.Scanln(&response)
				if strings.ToLower(response) != "y" {
					fmt.Println("Deletion cancelled.")
					return nil
				}
			}

			deleted, err := store.DeleteTransactions(ctx, args)
			if err != nil {
				return fmt.Errorf("failed to delete transactions: %w", err)
			}

			if deleted < len(args) {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Deleted %d of %d transactions", deleted, len(args))))
			} else {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted %d transaction(s)", deleted)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}

func tagTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tag <transaction-id> <tag-id>...",
		Short: "Attach tags to a transaction",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.AddTagsToTransaction(ctx, args[0], args[1:]); err != nil {
				return fmt.Errorf("failed to tag transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Tagged transaction %s with %d tag(s)", args[0], len(args)-1)))
			return nil
		},
	}
}

func untagTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untag <transaction-id> <tag-id>...",
		Short: "Detach tags from a transaction",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.RemoveTagsFromTransaction(ctx, args[0], args[1:]); err != nil {
				return fmt.Errorf("failed to untag transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Untagged transaction %s", args[0])))
			return nil
		},
	}
}
