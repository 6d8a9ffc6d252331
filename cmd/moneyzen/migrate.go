package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moneyzen/money-zen/internal/cli"
)

func migrateCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate-categories <file>",
		Short: "Import categories from a grouped-category JSON file",
		Long: `Read a JSON document holding income and expense category groups and
create every category that does not already exist. Existing categories are
left untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			inserted, err := store.MigrateCategoriesFromFile(ctx, args[0])
			if err != nil {
				return fmt.Errorf("category migration failed: %w", err)
			}

			if inserted == 0 {
				fmt.Println(cli.InfoStyle.Render("All categories already exist, nothing to do."))
				return nil
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %d categories", inserted)))
			return nil
		},
	}
}
