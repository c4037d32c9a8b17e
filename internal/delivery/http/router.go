package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"calport/internal/delivery/http/controllers"
)

// Middleware wraps a handler func, typically to enforce auth on a route.
type Middleware func(http.HandlerFunc) http.HandlerFunc

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	eventController *controllers.EventController,
	interactionController *controllers.InteractionController,
	feedController *controllers.FeedController,
	requireAuth Middleware,
) *http.ServeMux {
	mux := http.NewServeMux()

	// Events
	mux.HandleFunc("POST /events", requireAuth(eventController.CreateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", requireAuth(eventController.DeleteEvent))
	mux.HandleFunc("GET /events/{eventID}/schedule", requireAuth(eventController.GetSchedule))
	mux.HandleFunc("PUT /events/{eventID}/schedule", requireAuth(eventController.UpdateSchedule))

	// Interactions
	mux.HandleFunc("POST /events/{eventID}/invitations", requireAuth(interactionController.Invite))
	mux.HandleFunc("POST /events/{eventID}/subscription", requireAuth(interactionController.Subscribe))
	mux.HandleFunc("POST /events/{eventID}/join", requireAuth(interactionController.Join))
	mux.HandleFunc("DELETE /events/{eventID}/interaction", requireAuth(interactionController.Leave))
	mux.HandleFunc("PATCH /interactions/{interactionID}", requireAuth(interactionController.UpdateStatus))

	// Feed
	mux.HandleFunc("GET /feed", requireAuth(feedController.GetFeed))
	mux.HandleFunc("GET /cancellations", requireAuth(feedController.ListCancellations))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
