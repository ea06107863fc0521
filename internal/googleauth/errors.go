package googleauth

import (
	"errors"
	"fmt"
)

var errMissingAccessToken = errors.New("response has no access_token")

// CredentialError reports a service-account private key that could not be
// parsed or used for signing.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return "googleauth: unusable service account key: " + e.Err.Error()
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// AuthExchangeError reports a token endpoint that rejected the signed
// assertion or answered with something other than an access token.
// StatusCode is zero when the endpoint could not be reached.
type AuthExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthExchangeError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode != 0:
		return fmt.Sprintf("googleauth: token exchange (status %d): %v", e.StatusCode, e.Err)
	case e.Err != nil:
		return "googleauth: token exchange: " + e.Err.Error()
	default:
		return fmt.Sprintf("googleauth: token endpoint returned %d: %s", e.StatusCode, e.Body)
	}
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}
