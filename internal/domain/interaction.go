package domain

import (
	"context"
	"time"
)

// InteractionType is the explicit relationship between a user and an event.
// Ownership is implicit via Event.OwnerID and has no interaction row.
type InteractionType string

const (
	InteractionJoined     InteractionType = "joined"
	InteractionInvited    InteractionType = "invited"
	InteractionSubscribed InteractionType = "subscribed"
)

// InteractionStatus is the state of an interaction. Status transitions are
// meaningful for invitations; joined and subscribed rows are created accepted.
type InteractionStatus string

const (
	StatusPending  InteractionStatus = "pending"
	StatusAccepted InteractionStatus = "accepted"
	StatusRejected InteractionStatus = "rejected"
)

// EventInteraction represents one user's relationship to one event. A user
// may hold at most one row per (event, user, type); the same user may hold
// both a subscribed and an invited row for the same event.
//
// Interactions created on a recurring base event are mirrored onto every
// instance of the series, so per-instance decisions (accept one occurrence,
// skip another) stay representable and the access channel collectors see
// instances directly.
// swagger:model EventInteraction
type EventInteraction struct {
	ID        string            `json:"id"`
	EventID   string            `json:"event_id"`
	UserID    string            `json:"user_id"`
	Type      InteractionType   `json:"interaction_type"`
	Status    InteractionStatus `json:"status"`
	InvitedBy *string           `json:"invited_by_user_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewEventInteraction returns a new EventInteraction with the given fields.
func NewEventInteraction(id, eventID, userID string, typ InteractionType, status InteractionStatus, invitedBy *string, createdAt, updatedAt time.Time) *EventInteraction {
	return &EventInteraction{
		ID:        id,
		EventID:   eventID,
		UserID:    userID,
		Type:      typ,
		Status:    status,
		InvitedBy: invitedBy,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// EventInteractionRepository defines storage for event interactions.
//
// CreateBatch inserts all rows in one transaction; a duplicate
// (event, user, type) anywhere in the batch rolls the whole batch back and
// returns ErrConflict.
//
// RejectWithInstances sets the base interaction to rejected and bulk-updates
// the same user's pending invited rows on the given instance events, in one
// transaction. Accepted or already-rejected instance rows are untouched. The
// operation is idempotent.
type EventInteractionRepository interface {
	CreateBatch(ctx context.Context, interactions []*EventInteraction) error
	GetByID(ctx context.Context, id string) (*EventInteraction, error)
	GetByEventUserType(ctx context.Context, eventID, userID string, typ InteractionType) (*EventInteraction, error)
	UpdateStatus(ctx context.Context, id string, status InteractionStatus) (*EventInteraction, error)
	RejectWithInstances(ctx context.Context, id, userID string, instanceIDs []string) (*EventInteraction, error)
	Delete(ctx context.Context, eventID, userID string, typ InteractionType) error
	ListEventIDsByUserAndType(ctx context.Context, userID string, typ InteractionType) ([]string, error)
	ListStatusByUserAndEventIDs(ctx context.Context, userID string, eventIDs []string, typ InteractionType) (map[string]InteractionStatus, error)
}

// InteractionService defines the interaction lifecycle: invite, subscribe,
// join, leave, and invitation accept/reject with its series cascade.
type InteractionService interface {
	// Invite creates pending invited interactions for the invitee on the event
	// and, for a recurring base, on every instance of its series.
	Invite(ctx context.Context, eventID, inviterID, inviteeID string) (*EventInteraction, error)
	// Subscribe creates accepted subscribed interactions on the event and, for
	// a recurring base, on every instance.
	Subscribe(ctx context.Context, eventID, userID string) (*EventInteraction, error)
	// Join creates accepted joined interactions on the event and, for a
	// recurring base, on every instance.
	Join(ctx context.Context, eventID, userID string) (*EventInteraction, error)
	// Leave removes the caller's interaction of the given type from the event.
	Leave(ctx context.Context, eventID, userID string, typ InteractionType) error
	// UpdateStatus accepts or rejects an invitation. Rejecting an invitation on
	// a recurring base event cascades the rejection to the caller's pending
	// per-instance invitations.
	UpdateStatus(ctx context.Context, interactionID, callerID string, status InteractionStatus) (*EventInteraction, error)
}
