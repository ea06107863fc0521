// Package app assembles the visitor tracking service from configuration.
package app

import (
	"log/slog"
	"net/http"

	"visitlog/internal/config"
	"visitlog/internal/googleauth"
	"visitlog/internal/sheets"
	"visitlog/internal/visitors"
)

// NewVisitorService wires the token minter and Sheets client for cfg. Both
// share one outbound client whose timeout comes from cfg.OutboundTimeout.
func NewVisitorService(cfg config.Config, logger *slog.Logger) *visitors.Service {
	client := &http.Client{Timeout: cfg.OutboundTimeout}

	minter := googleauth.NewMinter(client, googleauth.WithTokenURL(cfg.GoogleTokenURL))
	sheetClient := sheets.NewClient(client, sheets.WithEndpoint(cfg.GoogleSheetsEndpoint))

	return visitors.NewService(visitors.Config{
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		SheetID:            cfg.GoogleSheetID,
	}, minter, sheetClient, logger)
}
