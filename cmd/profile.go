package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/accounts-cli/internal/model"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Build the consolidated profile for one account",
	Long: `Builds the consolidated engagement profile for a single account:
named and unnamed activity, resolved customer identifiers, matched
firmographics, and the classified contact roster.

Examples:
  # Print the profile as a table
  profile --account "Acme Corp"

  # Emit JSON for the dashboard frontend
  profile --account "Acme Corp" --format json

  # Write JSON to a file
  profile --account "Acme Corp" --format json --output acme.json`,
	RunE: runProfile,
}

func init() {
	f := profileCmd.Flags()
	f.String("account", "", "account name (exact match)")
	f.String("format", "table", "output format: table or json")
	f.String("output", "", "output file path (default: stdout)")
	_ = profileCmd.MarkFlagRequired("account")

	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	account, _ := cmd.Flags().GetString("account")
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	log := zap.L().With(zap.String("command", "profile"))

	svc, st, err := initService(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	profile, err := svc.BuildProfile(ctx, account)
	if model.IsNotFound(err) {
		// Informational empty state, not a failure.
		fmt.Fprintf(cmd.OutOrStdout(), "no activity recorded for account %q\n", account)
		return nil
	}
	if err != nil {
		log.Error("profile build failed", zap.String("account", account), zap.Error(err))
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "profile: create %s", output)
		}
		defer f.Close()
		out = f
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(profile), "profile: encode json")
	}
	return printProfileTable(out, profile)
}

func printProfileTable(out io.Writer, p *model.AccountProfile) error {
	fmt.Fprintf(out, "Account: %s\n", p.Account)
	fmt.Fprintf(out, "Activity: %d rows (%d named, %d unnamed)\n", p.ActivityCount(), len(p.Named), len(p.Unnamed))
	fmt.Fprintf(out, "Identifiers: %v\n\n", p.Identifiers)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENGAGEMENT\tDATE\tTYPE")
	for _, rec := range p.Named {
		when := ""
		if rec.When != nil {
			when = rec.When.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", rec.Label, when, rec.Type)
	}
	if err := w.Flush(); err != nil {
		return eris.Wrap(err, "profile: flush table")
	}

	fmt.Fprintf(out, "\nFirmographics: %d rows, columns %v\n", len(p.Firmographics.Rows), p.Firmographics.Columns)

	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\nCONTACT\tTITLE\tCOLOR\tENGAGED")
	for _, c := range p.Contacts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", c.DisplayName, c.Title, c.StatusColor, c.Engaged)
	}
	return eris.Wrap(w.Flush(), "profile: flush contacts")
}
