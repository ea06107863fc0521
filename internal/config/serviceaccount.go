package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"visitlog/internal/googleauth"
)

var errNotSet = errors.New("is not set")

// Error reports missing or malformed configuration needed by a request.
// No remote call is attempted once an Error is returned.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ParseServiceAccount decodes a Google service-account key file.
func ParseServiceAccount(descriptor string) (googleauth.Credential, error) {
	const key = "GOOGLE_SERVICE_ACCOUNT_JSON"

	if strings.TrimSpace(descriptor) == "" {
		return googleauth.Credential{}, &Error{Key: key, Err: errNotSet}
	}

	var cred googleauth.Credential
	if err := json.Unmarshal([]byte(descriptor), &cred); err != nil {
		return googleauth.Credential{}, &Error{Key: key, Err: fmt.Errorf("is not valid JSON: %w", err)}
	}

	cred.ClientEmail = strings.TrimSpace(cred.ClientEmail)
	switch {
	case cred.ClientEmail == "":
		return googleauth.Credential{}, &Error{Key: key, Err: errors.New("has no client_email")}
	case strings.TrimSpace(cred.PrivateKeyPEM) == "":
		return googleauth.Credential{}, &Error{Key: key, Err: errors.New("has no private_key")}
	}

	return cred, nil
}

// RequireSheetID returns an Error when no target spreadsheet is configured.
func RequireSheetID(sheetID string) (string, error) {
	sheetID = strings.TrimSpace(sheetID)
	if sheetID == "" {
		return "", &Error{Key: "GOOGLE_SHEET_ID", Err: errNotSet}
	}
	return sheetID, nil
}
