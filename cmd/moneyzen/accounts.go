package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moneyzen/money-zen/internal/cli"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, update, and delete the accounts transactions are booked against.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(updateAccountCmd())
	cmd.AddCommand(deleteAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			accounts, err := store.GetAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to get accounts: %w", err)
			}

			if len(accounts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No accounts found. Use 'moneyzen accounts add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Type"),
				cli.TableHeaderStyle.Render("Owner"),
				cli.TableHeaderStyle.Render("Balance"),
				cli.TableHeaderStyle.Render("ID"))

			for _, a := range accounts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					a.Name, a.Type, a.Owner,
					cli.FormatAmount(a.Balance, a.Currency),
					cli.SubtleStyle.Render(a.ID))
			}

			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var (
		accountType string
		currency    string
		owner       string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			account, err := store.CreateAccount(ctx, args[0], accountType, currency, owner)
			if err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created account %q (%s)", account.Name, account.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "checking", "Account type (cash, checking, savings, credit_card, investment)")
	cmd.Flags().StringVar(&currency, "currency", "RON", "Account currency code")
	cmd.Flags().StringVar(&owner, "owner", "", "Account owner")

	return cmd
}

func updateAccountCmd() *cobra.Command {
	var (
		name        string
		accountType string
		currency    string
		owner       string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an account",
		Long:  `Update the name, type, currency, or owner of an existing account. Unset flags keep the current value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if name == "" && accountType == "" && currency == "" && owner == "" {
				return fmt.Errorf("must specify at least one of --name, --type, --currency, --owner")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			current, err := store.GetAccountByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load account: %w", err)
			}

			if name == "" {
				name = current.Name
			}
			if accountType == "" {
				accountType = current.Type
			}
			if currency == "" {
				currency = current.Currency
			}
			if owner == "" {
				owner = current.Owner
			}

			updated, err := store.UpdateAccount(ctx, current.ID, name, accountType, currency, owner)
			if err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated account %q", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New account name")
	cmd.Flags().StringVar(&accountType, "type", "", "New account type")
	cmd.Flags().StringVar(&currency, "currency", "", "New currency code")
	cmd.Flags().StringVar(&owner, "owner", "", "New owner")

	return cmd
}

func deleteAccountCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Long:  `Delete an account. All of its transactions are deleted with it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			// Confirm deletion
			if !force {
				fmt.Printf("Deleting account %s removes all of its transactions. Continue? (y/N): ", args[0])
				var response string
				fmt.Scanln(&response)
				if strings.ToLower(response) != "y" {
					fmt.Println("Deletion cancelled.")
					return nil
				}
			}

			if err := store.DeleteAccount(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete account: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Deleted account " + args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
