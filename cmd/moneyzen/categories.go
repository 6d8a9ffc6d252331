package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moneyzen/money-zen/internal/cli"
	"github.com/moneyzen/money-zen/internal/model"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage categories",
		Long:  `List, add, update, and delete the income and expense categories transactions are classified under.`,
	}

	cmd.AddCommand(listCategoriesCmd())
	cmd.AddCommand(addCategoryCmd())
	cmd.AddCommand(updateCategoryCmd())
	cmd.AddCommand(deleteCategoryCmd())

	return cmd
}

func listCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			categories, err := store.GetCategories(ctx)
			if err != nil {
				return fmt.Errorf("failed to get categories: %w", err)
			}

			if len(categories) == 0 {
				fmt.Println(cli.InfoStyle.Render("No categories found. Use 'moneyzen categories add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Icon"),
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Type"),
				cli.TableHeaderStyle.Render("ID"))

			for _, c := range categories {
				typeText := string(c.Type)
				if c.Type == model.CategoryTypeIncome {
					typeText = cli.IncomeStyle.Render(typeText)
				} else {
					typeText = cli.ExpenseStyle.Render(typeText)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					c.Icon, c.Name, typeText, cli.SubtleStyle.Render(c.ID))
			}

			return nil
		},
	}
}

func addCategoryCmd() *cobra.Command {
	var (
		categoryType string
		icon         string
		color        string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			category, err := store.CreateCategory(ctx, args[0], icon, color, model.CategoryType(categoryType))
			if err != nil {
				return fmt.Errorf("failed to create category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created category %q (%s)", category.Name, category.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&categoryType, "type", "expense", "Category type (income, expense)")
	cmd.Flags().StringVar(&icon, "icon", "📁", "Category icon")
	cmd.Flags().StringVar(&color, "color", "#95A5A6", "Category color")

	return cmd
}

func updateCategoryCmd() *cobra.Command {
	var (
		name         string
		categoryType string
		icon         string
		color        string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a category",
		Long:  `Update the name, icon, color, or type of an existing category. Unset flags keep the current value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if name == "" && categoryType == "" && icon == "" && color == "" {
				return fmt.Errorf("must specify at least one of --name, --type, --icon, --color")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			current, err := store.GetCategoryByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load category: %w", err)
			}

			if name == "" {
				name = current.Name
			}
			if categoryType == "" {
				categoryType = string(current.Type)
			}
			if icon == "" {
				icon = current.Icon
			}
			if color == "" {
				color = current.Color
			}

			updated, err := store.UpdateCategory(ctx, current.ID, name, icon, color, model.CategoryType(categoryType))
			if err != nil {
				return fmt.Errorf("failed to update category: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated category %q", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New category name")
	cmd.Flags().StringVar(&categoryType, "type", "", "New category type")
	cmd.Flags().StringVar(&icon, "icon", "", "New category icon")
	cmd.Flags().StringVar(&color, "color", "", "New category color")

	return cmd
}

func deleteCategoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category",
		Long:  `Delete a category. This fails if any transactions still reference it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteCategory(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete category: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Deleted category " + args[0]))
			return nil
		},
	}
}
