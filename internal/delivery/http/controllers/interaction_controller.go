package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"calport/internal/delivery/http/helpers"
	"calport/internal/delivery/http/middleware"
	"calport/internal/domain"
)

type InteractionController struct {
	Logger  *slog.Logger
	Service domain.InteractionService
}

func NewInteractionController(logger *slog.Logger, svc domain.InteractionService) *InteractionController {
	return &InteractionController{
		Logger:  logger,
		Service: svc,
	}
}

// InviteRequest is the request body for POST /events/{eventID}/invitations.
type InviteRequest struct {
	UserID string `json:"user_id"`
}

// Validate implements Validator.
func (i InviteRequest) Validate() []string {
	var errs []string
	if i.UserID == "" {
		errs = append(errs, "user_id is required")
	}
	return errs
}

// Invite godoc
// @Summary Invite a user to an event
// @Description Creates a pending invitation for the user. Inviting to a recurring base also creates per-instance invitations so the invitee can later decide occurrence by occurrence. A block between the pair forbids the invitation.
// @Tags interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param body body InviteRequest true "Invitee"
// @Success 201 {object} helpers.APIResponse "data contains the invitation on the addressed event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (blocked pair)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already invited)"
// @Router /events/{eventID}/invitations [post]
func (c *InteractionController) Invite(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req InviteRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	interaction, err := c.Service.Invite(r.Context(), eventID, userID, req.UserID)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, interaction)
}

// Subscribe godoc
// @Summary Subscribe to an event
// @Description Subscribes the authenticated user to the event. Subscribing to a recurring base also subscribes to every instance.
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} helpers.APIResponse "data contains the subscription on the addressed event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (blocked pair)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already subscribed)"
// @Router /events/{eventID}/subscription [post]
func (c *InteractionController) Subscribe(w http.ResponseWriter, r *http.Request) {
	c.createInteraction(w, r, c.Service.Subscribe)
}

// Join godoc
// @Summary Join an event
// @Description Joins the authenticated user to the event. Joining a recurring base also joins every instance.
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 201 {object} helpers.APIResponse "data contains the joined interaction on the addressed event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (blocked pair)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already joined)"
// @Router /events/{eventID}/join [post]
func (c *InteractionController) Join(w http.ResponseWriter, r *http.Request) {
	c.createInteraction(w, r, c.Service.Join)
}

func (c *InteractionController) createInteraction(w http.ResponseWriter, r *http.Request, create func(ctx context.Context, eventID, userID string) (*domain.EventInteraction, error)) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	interaction, err := create(r.Context(), eventID, userID)
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, interaction)
}

// Leave godoc
// @Summary Remove the caller's interaction with an event
// @Description Removes the authenticated user's interaction of the given type from the event. Leaving a base does not remove per-instance interactions.
// @Tags interactions
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param type query string true "Interaction type" Enums(joined, invited, subscribed)
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{eventID}/interaction [delete]
func (c *InteractionController) Leave(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	interactionType := domain.InteractionType(r.URL.Query().Get("type"))
	switch interactionType {
	case domain.InteractionJoined, domain.InteractionInvited, domain.InteractionSubscribed:
	default:
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "type must be one of joined, invited, subscribed")
		return
	}
	if err := c.Service.Leave(r.Context(), eventID, userID, interactionType); err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"status": "removed"})
}

// UpdateStatusRequest is the request body for PATCH /interactions/{interactionID}.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator.
func (u UpdateStatusRequest) Validate() []string {
	var errs []string
	switch domain.InteractionStatus(u.Status) {
	case domain.StatusAccepted, domain.StatusRejected:
	default:
		errs = append(errs, "status must be accepted or rejected")
	}
	return errs
}

// UpdateStatus godoc
// @Summary Accept or reject an invitation
// @Description Updates the status of the caller's own invitation. Rejecting an invitation on a recurring base also rejects every still-pending instance invitation in the series.
// @Tags interactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param interactionID path string true "Interaction ID"
// @Param body body UpdateStatusRequest true "New status"
// @Success 200 {object} helpers.APIResponse "data contains the updated interaction"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not the invitee)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /interactions/{interactionID} [patch]
func (c *InteractionController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	interactionID := r.PathValue("interactionID")
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req UpdateStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	interaction, err := c.Service.UpdateStatus(r.Context(), interactionID, userID, domain.InteractionStatus(req.Status))
	if err != nil {
		writeDomainError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, interaction)
}
