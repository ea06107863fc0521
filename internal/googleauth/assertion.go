package googleauth

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// SpreadsheetsScope grants read/write access to Google Sheets.
	SpreadsheetsScope = "https://www.googleapis.com/auth/spreadsheets"

	// AssertionLifetime is how long a signed assertion stays valid after minting.
	AssertionLifetime = 3600 * time.Second

	signingAlgorithm = "RS256"
)

var pemDelimiter = regexp.MustCompile(`-----(BEGIN|END) [A-Z ]*PRIVATE KEY-----`)

// Header is the JOSE header of a signed assertion.
type Header struct {
	Algorithm string `json:"alg"`
	Type      string `json:"typ"`
}

// Payload is the claim set of a signed assertion.
type Payload struct {
	Issuer    string `json:"iss"`
	Scope     string `json:"scope"`
	Audience  string `json:"aud"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// NewAssertion builds and signs a JWT bearer assertion for cred, issued at now.
func NewAssertion(cred Credential, scope, audience string, now time.Time) (string, error) {
	key, err := parsePrivateKey(cred.PrivateKeyPEM)
	if err != nil {
		return "", &CredentialError{Err: err}
	}

	header, err := encodeSegment(buildHeader())
	if err != nil {
		return "", fmt.Errorf("encode assertion header: %w", err)
	}
	payload, err := encodeSegment(buildPayload(cred.ClientEmail, scope, audience, now))
	if err != nil {
		return "", fmt.Errorf("encode assertion payload: %w", err)
	}

	signingInput := assemble(header, payload)
	signature, err := sign(signingInput, key)
	if err != nil {
		return "", &CredentialError{Err: err}
	}

	return assemble(signingInput, signature), nil
}

func buildHeader() Header {
	return Header{Algorithm: signingAlgorithm, Type: "JWT"}
}

func buildPayload(email, scope, audience string, now time.Time) Payload {
	iat := now.Unix()
	return Payload{
		Issuer:    email,
		Scope:     scope,
		Audience:  audience,
		IssuedAt:  iat,
		ExpiresAt: iat + int64(AssertionLifetime/time.Second),
	}
}

// encodeSegment serializes v as JSON and encodes it as unpadded base64url.
func encodeSegment(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func parsePrivateKey(pemText string) (*rsa.PrivateKey, error) {
	body := strings.Join(strings.Fields(pemDelimiter.ReplaceAllString(pemText, "")), "")
	if body == "" {
		return nil, errors.New("private key is empty")
	}

	der, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		// Older key files carry a PKCS#1 body.
		if key, pkcs1Err := x509.ParsePKCS1PrivateKey(der); pkcs1Err == nil {
			return key, nil
		}
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is %T, want RSA", parsed)
	}
	return key, nil
}

// sign produces the base64url RSASSA-PKCS1-v1_5 SHA-256 signature segment.
func sign(signingInput string, key *rsa.PrivateKey) (string, error) {
	digest := sha256.Sum256([]byte(signingInput))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign assertion: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(signature), nil
}

func assemble(segments ...string) string {
	return strings.Join(segments, ".")
}
