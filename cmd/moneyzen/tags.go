package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moneyzen/money-zen/internal/cli"
)

func tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage tags",
		Long:  `List, add, update, and delete the free-form tags attached to transactions.`,
	}

	cmd.AddCommand(listTagsCmd())
	cmd.AddCommand(addTagCmd())
	cmd.AddCommand(updateTagCmd())
	cmd.AddCommand(deleteTagCmd())

	return cmd
}

func listTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tags",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			tags, err := store.GetTags(ctx)
			if err != nil {
				return fmt.Errorf("failed to get tags: %w", err)
			}

			if len(tags) == 0 {
				fmt.Println(cli.InfoStyle.Render("No tags found. Use 'moneyzen tags add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Icon"),
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("ID"))

			for _, tag := range tags {
				fmt.Fprintf(w, "%s\t%s\t%s\n", tag.Icon, tag.Name, cli.SubtleStyle.Render(tag.ID))
			}

			return nil
		},
	}
}

func addTagCmd() *cobra.Command {
	var (
		icon  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			tag, err := store.CreateTag(ctx, args[0], icon, color)
			if err != nil {
				return fmt.Errorf("failed to create tag: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created tag %q (%s)", tag.Name, tag.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&icon, "icon", "🏷️", "Tag icon")
	cmd.Flags().StringVar(&color, "color", "#3498DB", "Tag color")

	return cmd
}

func updateTagCmd() *cobra.Command {
	var (
		name  string
		icon  string
		color string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a tag",
		Long:  `Update the name, icon, or color of an existing tag. Unset flags keep the current value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if name == "" && icon == "" && color == "" {
				return fmt.Errorf("must specify at least one of --name, --icon, --color")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			current, err := store.GetTagByID(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to load tag: %w", err)
			}

			if name == "" {
				name = current.Name
			}
			if icon == "" {
				icon = current.Icon
			}
			if color == "" {
				color = current.Color
			}

			updated, err := store.UpdateTag(ctx, current.ID, name, icon, color)
			if err != nil {
				return fmt.Errorf("failed to update tag: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated tag %q", updated.Name)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New tag name")
	cmd.Flags().StringVar(&icon, "icon", "", "New tag icon")
	cmd.Flags().StringVar(&color, "color", "", "New tag color")

	return cmd
}

func deleteTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tag",
		Long:  `Delete a tag. This fails if any transactions still carry it.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteTag(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete tag: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Deleted tag " + args[0]))
			return nil
		},
	}
}
