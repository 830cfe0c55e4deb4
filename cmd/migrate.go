package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/accounts-cli/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the reporting tables on the configured store",
	Long: `Creates the activity_log, firmographics, and contacts tables if they do
not exist. The production reporting database is owned externally; this is
for local SQLite development and test fixtures.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cols, err := loadCandidates()
		if err != nil {
			return err
		}
		st, err := openStore(ctx, cols)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "reporting tables ready (%s, %s, %s)\n",
			store.TableActivity, store.TableFirmographics, store.TableContacts)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
