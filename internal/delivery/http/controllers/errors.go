package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"calport/internal/delivery/http/helpers"
	"calport/internal/domain"
)

// banDetail is the structured payload attached to a banned-owner rejection.
type banDetail struct {
	Reason   string `json:"reason"`
	BannedAt string `json:"banned_at"`
}

// writeDomainError maps service errors onto the API envelope. Sentinel
// domain errors become their client-visible status; anything else is an
// internal error and gets logged.
func writeDomainError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var banErr *domain.BanError
	switch {
	case errors.As(err, &banErr):
		helpers.WriteJSONErrorDetail(w, http.StatusForbidden, helpers.ErrCodeForbidden, banErr.Error(), banDetail{
			Reason:   banErr.Reason,
			BannedAt: banErr.BannedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
