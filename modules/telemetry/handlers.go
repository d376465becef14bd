package telemetry

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/evermedhq/pulse/pkg/analytics"
	"github.com/evermedhq/pulse/pkg/analytics/rollup"
	"github.com/evermedhq/pulse/pkg/feature"
)

const defaultWindowDays = 30

type handlers struct {
	flags   *feature.Service
	tracker *analytics.Tracker
	reports *rollup.Aggregator
	log     *slog.Logger
}

func (h *handlers) listFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := h.flags.List(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list flags", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list flags")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"flags": flags})
}

type createFlagRequest struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	Enabled        bool   `json:"enabled"`
	RolloutPercent int    `json:"rolloutPercent"`
}

func (h *handlers) createFlag(w http.ResponseWriter, r *http.Request) {
	var req createFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	flag, err := h.flags.Create(r.Context(), req.Name, req.Description, req.Enabled, req.RolloutPercent)
	switch {
	case errors.Is(err, feature.ErrInvalidFlag), errors.Is(err, feature.ErrInvalidRolloutPercent):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, feature.ErrFlagExists):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "failed to create flag", "flag", req.Name, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create flag")
		return
	}
	respondJSON(w, http.StatusCreated, flag)
}

type updateFlagRequest struct {
	Name           string `json:"name"`
	Enabled        bool   `json:"enabled"`
	RolloutPercent int    `json:"rolloutPercent"`
}

func (h *handlers) updateFlag(w http.ResponseWriter, r *http.Request) {
	var req updateFlagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	flag, err := h.flags.Update(r.Context(), req.Name, req.Enabled, req.RolloutPercent)
	switch {
	case errors.Is(err, feature.ErrInvalidFlag), errors.Is(err, feature.ErrInvalidRolloutPercent):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "failed to update flag", "flag", req.Name, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update flag")
		return
	}
	respondJSON(w, http.StatusOK, flag)
}

type recordEventRequest struct {
	EventType string         `json:"eventType"`
	EventName string         `json:"eventName"`
	Metadata  map[string]any `json:"metadata"`
	SessionID string         `json:"sessionId"`
}

func (h *handlers) recordEvent(w http.ResponseWriter, r *http.Request) {
	var req recordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := h.tracker.Track(r.Context(), analytics.EventType(req.EventType), req.EventName, req.Metadata, req.SessionID)
	switch {
	case errors.Is(err, analytics.ErrPrivacyViolation):
		respondJSON(w, http.StatusBadRequest, errorBody{
			Error:      "metadata contains forbidden keys",
			Violations: analytics.ValidatePrivacy(req.Metadata),
		})
		return
	case errors.Is(err, analytics.ErrInvalidEvent):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		// Track swallows storage failures, so anything else is unexpected.
		h.log.ErrorContext(r.Context(), "failed to record event", "event", req.EventName, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to record event")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (h *handlers) metricsReport(w http.ResponseWriter, r *http.Request) {
	windowDays := defaultWindowDays
	if raw := r.URL.Query().Get("windowDays"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "windowDays must be a positive integer")
			return
		}
		windowDays = parsed
	}

	report, err := h.reports.ComputeReport(r.Context(), windowDays)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to compute metrics report", "window_days", windowDays, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute metrics report")
		return
	}
	respondJSON(w, http.StatusOK, report)
}
