package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5/middleware"

	"visitlog/internal/config"
	"visitlog/internal/googleauth"
	"visitlog/internal/sheets"
	"visitlog/internal/visitors"
)

const trackFailedMessage = "Failed to track visitor"

// VisitTracker describes the visitor service used by the handler.
type VisitTracker interface {
	Track(ctx context.Context, visit visitors.Visit) error
	Diagnose(ctx context.Context) (visitors.Diagnosis, error)
}

// TrackHandler exposes the tracking and sheet diagnostics endpoints.
type TrackHandler struct {
	tracker VisitTracker
	logger  *slog.Logger
	now     func() time.Time
}

// NewTrackHandler constructs a handler for visitor tracking.
func NewTrackHandler(tracker VisitTracker, logger *slog.Logger) *TrackHandler {
	return &TrackHandler{tracker: tracker, logger: logger, now: time.Now}
}

// Track records one visit. An empty body is treated as an empty object.
func (h *TrackHandler) Track(w http.ResponseWriter, r *http.Request) {
	var input visitors.Input
	if err := decodeJSONBody(w, r, &input); err != nil && !errors.Is(err, io.EOF) {
		if errors.Is(err, errPayloadTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		h.logger.Warn("track body rejected", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   trackFailedMessage,
			"details": "invalid request body",
		})
		return
	}

	visit := visitors.NewVisit(input, r.Header, r.Host, h.now())
	h.logger.Debug("visit received",
		"visit_id", visit.ID,
		"screen", input.ScreenResolution,
		"language", input.Language,
		"timezone", input.Timezone,
	)

	if err := h.tracker.Track(r.Context(), visit); err != nil {
		h.logger.Error("track visitor failed",
			"error", err,
			"visit_id", visit.ID,
			"request_id", middleware.GetReqID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   trackFailedMessage,
			"details": failureDetail(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DebugSheets runs the sheet diagnostics and reports raw failures.
func (h *TrackHandler) DebugSheets(w http.ResponseWriter, r *http.Request) {
	diagnosis, err := h.tracker.Diagnose(r.Context())
	if err != nil {
		h.logger.Error("sheet diagnostics failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Debug failed",
			"status":  "failed",
			"details": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Google Sheets debug completed successfully",
		"details": diagnosis,
	})
}

// failureDetail names the failed stage without exposing upstream bodies.
func failureDetail(err error) string {
	var (
		cfgErr   *config.Error
		credErr  *googleauth.CredentialError
		authErr  *googleauth.AuthExchangeError
		sheetErr *sheets.SheetWriteError
	)

	switch {
	case errors.As(err, &cfgErr):
		return "visitor tracking is not configured"
	case errors.As(err, &credErr):
		return "service account key is unusable"
	case errors.As(err, &authErr):
		return "Google token exchange failed"
	case errors.As(err, &sheetErr):
		if sheetErr.StatusCode != 0 {
			return fmt.Sprintf("spreadsheet rejected the row (status %d)", sheetErr.StatusCode)
		}
		return "spreadsheet could not be reached"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "tracking did not complete in time"
	default:
		return "unexpected error"
	}
}
