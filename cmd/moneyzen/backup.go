package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moneyzen/money-zen/internal/cli"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Back up and restore the database",
		Long:  `Write timestamped copies of the database to the backup folder and restore the active database from a chosen copy.`,
	}

	cmd.AddCommand(createBackupCmd())
	cmd.AddCommand(listBackupsCmd())
	cmd.AddCommand(restoreBackupCmd())

	return cmd
}

func createBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a new backup",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			backups, err := store.NewBackupManager(backupDir())
			if err != nil {
				return err
			}

			info, err := backups.Create(ctx)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Backed up database to %s (%d bytes)", info.Path, info.FileSize)))
			return nil
		},
	}
}

func listBackupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List existing backups, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			backups, err := store.NewBackupManager(backupDir())
			if err != nil {
				return err
			}

			infos, err := backups.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list backups: %w", err)
			}

			if len(infos) == 0 {
				fmt.Println(cli.InfoStyle.Render("No backups found. Use 'moneyzen backup create' to make one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.TableHeaderStyle.Render("Name"),
				cli.TableHeaderStyle.Render("Created"),
				cli.TableHeaderStyle.Render("Size"))

			for _, info := range infos {
				fmt.Fprintf(w, "%s\t%s\t%d bytes\n",
					info.Name,
					info.CreatedAt.Format("2006-01-02 15:04:05"),
					info.FileSize)
			}

			return nil
		},
	}
}

func restoreBackupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Restore the database from a backup",
		Long:  `Overwrite the active database file with the named backup. The current database is kept next to the active file as a safety copy.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			// Confirm overwrite
			if !force {
				fmt.Printf("Restoring %s overwrites the current database. Continue? (y/N): ", args[0])
				var response string
				fmt.Scanln(&response)
				if strings.ToLower(response) != "y" {
					fmt.Println("Restore cancelled.")
					return nil
				}
			}

			backups, err := store.NewBackupManager(backupDir())
			if err != nil {
				return err
			}

			if err := backups.Restore(ctx, args[0]); err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			fmt.Println(cli.FormatSuccess("Restored database from " + args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")

	return cmd
}
