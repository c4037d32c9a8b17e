package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"calport/internal/delivery/http/helpers"
	"calport/internal/delivery/http/middleware"
	"calport/internal/domain"
)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// RecurrenceRequest is the recurrence section of CreateEventRequest.
type RecurrenceRequest struct {
	Type     domain.RecurrenceType `json:"type"`
	Schedule domain.Schedule       `json:"schedule"`
	EndDate  *time.Time            `json:"end_date"`
}

// CreateEventRequest is the request body for POST /events. A recurrence
// section makes the event a recurring base whose instances are materialized
// on creation.
type CreateEventRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	StartTime   time.Time          `json:"start_time"`
	CalendarID  *string            `json:"calendar_id"`
	Recurrence  *RecurrenceRequest `json:"recurrence"`
}

// Validate implements Validator. Returns error messages for required fields;
// schedule shape is validated by the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if c.Name == "" {
		errs = append(errs, "name is required")
	}
	if c.StartTime.IsZero() {
		errs = append(errs, "start_time is required")
	}
	if c.Recurrence != nil && c.Recurrence.Type == "" {
		errs = append(errs, "recurrence.type is required")
	}
	return errs
}

// CreateEventResponse is the response body for POST /events.
type CreateEventResponse struct {
	Event            *domain.Event `json:"event"`
	InstancesCreated int           `json:"instances_created"`
}

// CreateEventSuccessResponse is the success response envelope for POST /events (201).
type CreateEventSuccessResponse struct {
	Data  CreateEventResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// CreateEvent godoc
// @Summary Create an event
// @Description Create a calendar event. With a recurrence section the event becomes a recurring base and its dated instances are generated and persisted in the same transaction. The authenticated user becomes the owner.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.CreateEventSuccessResponse "data contains the created base event and the instance count"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (empty or malformed schedule)"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (banned owner; detail carries reason and timestamp)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	input := domain.CreateEventInput{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		OwnerID:     userID,
		CalendarID:  req.CalendarID,
	}
	if req.Recurrence != nil {
		input.Recurrence = &domain.RecurrenceInput{
			Type:     req.Recurrence.Type,
			Schedule: req.Recurrence.Schedule,
			EndDate:  req.Recurrence.EndDate,
		}
	}
	event, instances, err := c.Service.CreateEvent(r.Context(), input)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, CreateEventResponse{Event: event, InstancesCreated: instances})
}

// DeleteEventRequest is the optional request body for DELETE /events/{eventID}.
// A non-empty message records a cancellation notice per affected event.
type DeleteEventRequest struct {
	Message string `json:"message"`
}

// DeleteEventResponse is the response body for DELETE /events/{eventID}.
// Deleted is 1 for a plain event and 1+N for a series with N instances.
type DeleteEventResponse struct {
	Deleted int `json:"deleted"`
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Delete an event. Deleting a recurring base removes every instance of its series in the same transaction. An optional cancellation message writes an audit record per affected event and emails affected users.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body DeleteEventRequest false "Optional cancellation message"
// @Success 200 {object} helpers.APIResponse "data contains the deleted count"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req DeleteEventRequest
	if r.Body != nil && r.ContentLength > 0 {
		if !helpers.DecodeAndValidate(w, r, &req) {
			return
		}
	}
	deleted, err := c.Service.DeleteEvent(r.Context(), eventID, userID, req.Message)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{Deleted: deleted})
}

// GetSchedule godoc
// @Summary Get a series' schedule
// @Description Returns the recurrence config of a recurring base event. Owner only.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Base event ID"
// @Success 200 {object} helpers.APIResponse "data contains the recurrence config"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/schedule [get]
func (c *EventController) GetSchedule(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	config, err := c.Service.GetSchedule(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, config)
}

// UpdateScheduleRequest is the request body for PUT /events/{eventID}/schedule.
type UpdateScheduleRequest struct {
	Schedule domain.Schedule `json:"schedule"`
	EndDate  *time.Time      `json:"end_date"`
}

// UpdateSchedule godoc
// @Summary Replace a series' schedule
// @Description Replaces the rule set and end date of a series. Already materialized instances are not regenerated; the new schedule applies only to future expansions. Owner only.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Base event ID"
// @Param body body UpdateScheduleRequest true "Replacement schedule"
// @Success 200 {object} helpers.APIResponse "data contains the updated recurrence config"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/schedule [put]
func (c *EventController) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateScheduleRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	config, err := c.Service.UpdateSchedule(r.Context(), eventID, userID, req.Schedule, req.EndDate)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, config)
}
