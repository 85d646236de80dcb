package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"nutrition-intake/cmd/bootstrap"
	"nutrition-intake/internal/converter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Health intake questionnaire service",
	Long: `intake collects health questionnaire profiles, stores them as an
append-only history per profile code and serves them back for editing.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Initialize application with all dependencies
		app, err := bootstrap.New()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		// Run the application
		app.Run()
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect stored profiles",
}

var profileGetCmd = &cobra.Command{
	Use:   "get [profile-code]",
	Short: "Print the current profile for a profile code or email",
	Args:  cobra.ExactArgs(1),
	RunE:  profileGet,
}

var profileHistoryCmd = &cobra.Command{
	Use:   "history [profile-code]",
	Short: "Print the audit trail for a profile code or email",
	Args:  cobra.ExactArgs(1),
	RunE:  profileHistory,
}

func init() {
	profileCmd.AddCommand(profileGetCmd, profileHistoryCmd)
	rootCmd.AddCommand(serveCmd, profileCmd)
}

func profileGet(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	res := app.Gateway.Load(ctx, args[0])
	if !res.OK {
		return fmt.Errorf("%s (%s)", res.Message, res.Outcome)
	}
	return printJSON(cmd, converter.ProfileToResponse(res.Profile))
}

func profileHistory(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	logs, err := app.AuditService.History(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load audit trail: %w", err)
	}
	return printJSON(cmd, converter.AuditLogsToResponses(logs))
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
