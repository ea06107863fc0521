package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"visitlog/internal/app"
	"visitlog/internal/config"
	"visitlog/internal/platform/logging"
	"visitlog/internal/visitors"
)

type globalFlags struct {
	sheetID         string
	credentialsFile string
	logLevel        string
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:          "sheetcheck",
		Short:        "Check Google Sheets access for visitor tracking",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&flags.sheetID, "sheet", "", "spreadsheet ID (overrides GOOGLE_SHEET_ID)")
	root.PersistentFlags().StringVar(&flags.credentialsFile, "credentials", "", "service account key file (overrides GOOGLE_SERVICE_ACCOUNT_JSON)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "log level")

	root.AddCommand(newCheckCmd(flags), newAppendTestCmd(flags))
	return root
}

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Mint a token and read the sheet title and header row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(cmd, flags)
			if err != nil {
				return err
			}

			diagnosis, err := svc.Diagnose(cmd.Context())
			if err != nil {
				return fmt.Errorf("sheet check failed: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(diagnosis)
		},
	}
}

func newAppendTestCmd(flags *globalFlags) *cobra.Command {
	var hostname, path string

	cmd := &cobra.Command{
		Use:   "append-test",
		Short: "Append one synthetic visit row",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := buildService(cmd, flags)
			if err != nil {
				return err
			}

			headers := http.Header{}
			headers.Set("User-Agent", "sheetcheck")
			visit := visitors.NewVisit(visitors.Input{
				Hostname: hostname,
				Path:     path,
				Device:   "cli",
				OS:       "cli",
				Browser:  "sheetcheck",
			}, headers, "", time.Now())

			if err := svc.Track(cmd.Context(), visit); err != nil {
				return fmt.Errorf("append test row: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "appended visit %s at %s\n", visit.ID, visit.Timestamp)
			return nil
		},
	}
	cmd.Flags().StringVar(&hostname, "hostname", "sheetcheck.local", "hostname column value")
	cmd.Flags().StringVar(&path, "path", "/sheetcheck", "path recorded in logs")
	return cmd
}

func buildService(cmd *cobra.Command, flags *globalFlags) (*visitors.Service, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, err
	}

	if flags.sheetID != "" {
		cfg.GoogleSheetID = strings.TrimSpace(flags.sheetID)
	}
	if flags.credentialsFile != "" {
		raw, err := os.ReadFile(flags.credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		cfg.GoogleServiceAccountJSON = string(raw)
	}
	if _, err := config.RequireSheetID(cfg.GoogleSheetID); err != nil {
		return nil, err
	}

	logger := logging.NewWithWriter(cmd.ErrOrStderr(), flags.logLevel, cfg.LogFormat)
	return app.NewVisitorService(cfg, logger), nil
}
