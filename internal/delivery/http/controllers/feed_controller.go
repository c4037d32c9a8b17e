package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"calport/internal/delivery/http/helpers"
	"calport/internal/delivery/http/middleware"
	"calport/internal/domain"
)

// defaultFeedHorizon bounds the default date range of a feed request when the
// caller supplies neither an explicit range nor a shortcut.
const defaultFeedHorizon = 365 * 24 * time.Hour

type FeedController struct {
	Logger  *slog.Logger
	Service domain.FeedService
}

func NewFeedController(logger *slog.Logger, svc domain.FeedService) *FeedController {
	return &FeedController{
		Logger:  logger,
		Service: svc,
	}
}

// parseRange resolves the from/to window: an explicit RFC3339 from/to pair
// wins; otherwise a range shortcut (today, week, month) expands to an
// explicit window; otherwise the default horizon applies.
func parseRange(r *http.Request, now time.Time) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	fromStr, toStr := q.Get("from"), q.Get("to")
	if fromStr != "" || toStr != "" {
		from, to = now, now.Add(defaultFeedHorizon)
		if fromStr != "" {
			parsed, err := time.Parse(time.RFC3339, fromStr)
			if err != nil {
				return time.Time{}, time.Time{}, false
			}
			from = parsed
		}
		if toStr != "" {
			parsed, err := time.Parse(time.RFC3339, toStr)
			if err != nil {
				return time.Time{}, time.Time{}, false
			}
			to = parsed
		}
		return from, to, true
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch q.Get("range") {
	case "today":
		return startOfDay, startOfDay.AddDate(0, 0, 1), true
	case "week":
		return startOfDay, startOfDay.AddDate(0, 0, 7), true
	case "month":
		startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return startOfMonth, startOfMonth.AddDate(0, 1, 0), true
	case "":
		return now, now.Add(defaultFeedHorizon), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// GetFeed godoc
// @Summary List the viewer's events
// @Description Aggregates every event the viewer can reach through ownership, subscription, invitation, or calendar membership, resolves recurring series visibility, excludes blocked owners, and returns an ordered page. Each item carries the source channel explaining why it is visible.
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Param range query string false "Shortcut window: today, week, or month"
// @Param search query string false "Case-insensitive substring match on event name"
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Page offset"
// @Success 200 {object} helpers.APIResponse "data contains the ordered feed items"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /feed [get]
func (c *FeedController) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	from, to, ok := parseRange(r, time.Now())
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid from/to/range")
		return
	}
	limit, offset := helpers.ParseLimitOffset(r)
	items, err := c.Service.ListFeed(r.Context(), userID, domain.FeedQuery{
		From:   from,
		To:     to,
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, items)
}

// ListCancellations godoc
// @Summary List the viewer's cancellation notices
// @Description Returns cancellation records for deleted events the viewer had an interaction with.
// @Tags feed
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the cancellation records"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /cancellations [get]
func (c *FeedController) ListCancellations(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	cancellations, err := c.Service.ListCancellations(r.Context(), userID)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, cancellations)
}
