package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxJSONBodyBytes int64 = 64 << 10 // collector payloads are a handful of short strings

var (
	errPayloadTooLarge = errors.New("payload too large")
	errTrailingData    = errors.New("request body must contain a single JSON value")
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSONBody decodes a size-limited JSON body into dst. Unknown fields
// are ignored so older and newer collectors can post to the same endpoint.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	limited := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	defer func() {
		_ = limited.Close()
	}()

	dec := json.NewDecoder(limited)
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err != nil {
			if tooLarge := bodyError(err); errors.Is(tooLarge, errPayloadTooLarge) {
				return tooLarge
			}
		}
		return errTrailingData
	}
	return nil
}

func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w (max %d bytes)", errPayloadTooLarge, maxErr.Limit)
	}
	return err
}
