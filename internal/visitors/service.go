// Package visitors turns collector posts into spreadsheet rows.
package visitors

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2"

	"visitlog/internal/config"
	"visitlog/internal/googleauth"
)

// HeaderRange is the range read back by Diagnose to prove read access.
const HeaderRange = "Sheet1!A1:J1"

// Config holds the per-deployment settings the tracker needs. The service
// account descriptor is parsed on every call.
type Config struct {
	ServiceAccountJSON string
	SheetID            string
}

// TokenMinter obtains a Sheets access token for a service account.
type TokenMinter interface {
	Mint(ctx context.Context, cred googleauth.Credential) (*oauth2.Token, error)
}

// SheetStore is the spreadsheet the visits are written to.
type SheetStore interface {
	Append(ctx context.Context, token *oauth2.Token, sheetID string, visit Visit) error
	Metadata(ctx context.Context, token *oauth2.Token, sheetID string) (string, error)
	Values(ctx context.Context, token *oauth2.Token, sheetID, readRange string) ([][]string, error)
}

// Service runs the credential → token → append chain for each visit.
type Service struct {
	cfg    Config
	minter TokenMinter
	sheets SheetStore
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(cfg Config, minter TokenMinter, sheets SheetStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, minter: minter, sheets: sheets, logger: logger}
}

// Track appends visit to the configured spreadsheet. Nothing is retried.
func (s *Service) Track(ctx context.Context, visit Visit) error {
	cred, sheetID, err := s.target()
	if err != nil {
		return err
	}

	token, err := s.minter.Mint(ctx, cred)
	if err != nil {
		return fmt.Errorf("mint access token: %w", err)
	}

	if err := s.sheets.Append(ctx, token, sheetID, visit); err != nil {
		return fmt.Errorf("append visit: %w", err)
	}

	s.logger.Info("visit logged",
		"visit_id", visit.ID,
		"hostname", visit.Hostname,
		"path", visit.Path,
		"referrer", visit.Referrer,
		"cf_ray", visit.CFRay,
	)
	return nil
}

// SheetAccess reports what Diagnose could do with the spreadsheet.
type SheetAccess struct {
	SheetTitle   string     `json:"sheetTitle"`
	CanRead      bool       `json:"canRead"`
	ExistingData [][]string `json:"existingData,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Diagnosis is the result of a successful Diagnose run.
type Diagnosis struct {
	ServiceAccountEmail string      `json:"serviceAccountEmail"`
	SheetID             string      `json:"sheetId"`
	TestResult          SheetAccess `json:"testResult"`
}

// Diagnose checks the configuration, mints a token, and reads the sheet
// title and header row. A failed header read is reported in the result
// rather than as an error.
func (s *Service) Diagnose(ctx context.Context) (Diagnosis, error) {
	cred, sheetID, err := s.target()
	if err != nil {
		return Diagnosis{}, err
	}
	s.logger.Debug("diagnosing sheet access", "client_email", cred.ClientEmail, "sheet_id", sheetID)

	token, err := s.minter.Mint(ctx, cred)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("mint access token: %w", err)
	}

	title, err := s.sheets.Metadata(ctx, token, sheetID)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("read sheet metadata: %w", err)
	}

	result := Diagnosis{
		ServiceAccountEmail: cred.ClientEmail,
		SheetID:             sheetID,
		TestResult:          SheetAccess{SheetTitle: title},
	}

	values, err := s.sheets.Values(ctx, token, sheetID, HeaderRange)
	if err != nil {
		s.logger.Warn("sheet values read failed", "sheet_id", sheetID, "error", err)
		result.TestResult.Error = err.Error()
		return result, nil
	}

	result.TestResult.CanRead = true
	result.TestResult.ExistingData = values
	return result, nil
}

func (s *Service) target() (googleauth.Credential, string, error) {
	cred, err := config.ParseServiceAccount(s.cfg.ServiceAccountJSON)
	if err != nil {
		return googleauth.Credential{}, "", err
	}
	sheetID, err := config.RequireSheetID(s.cfg.SheetID)
	if err != nil {
		return googleauth.Credential{}, "", err
	}
	return cred, sheetID, nil
}
