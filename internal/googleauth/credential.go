// Package googleauth mints Google OAuth access tokens for a service account
// using the RS256 JWT bearer grant.
package googleauth

// Credential is the subset of a Google service-account key file needed to
// sign assertions. Other keys in the file are ignored.
type Credential struct {
	ClientEmail   string `json:"client_email"`
	PrivateKeyPEM string `json:"private_key"`
}
