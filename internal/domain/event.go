package domain

import (
	"context"
	"time"
)

// EventKind distinguishes plain events from recurring series templates and
// their generated occurrences.
type EventKind string

const (
	EventKindRegular           EventKind = "regular"
	EventKindRecurringBase     EventKind = "recurring_base"
	EventKindRecurringInstance EventKind = "recurring_instance"
)

// Event represents a calendar event.
//
// SeriesID identifies the series the event belongs to and is the ID of the
// series' RecurrenceConfig. It is stored only for instances; repositories
// populate it for base events from the joined config row so that both ends of
// a series can be grouped by the same key.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	Kind        EventKind `json:"kind"`
	OwnerID     string    `json:"owner_id"`
	CalendarID  *string   `json:"calendar_id,omitempty"`
	SeriesID    *string   `json:"series_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewEvent returns a new Event with the given fields.
func NewEvent(id, name, description string, startTime time.Time, kind EventKind, ownerID string, calendarID *string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		ID:          id,
		Name:        name,
		Description: description,
		StartTime:   startTime,
		Kind:        kind,
		OwnerID:     ownerID,
		CalendarID:  calendarID,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// EventFilter narrows a batch event fetch by start time window and a
// case-insensitive substring match on the event name.
type EventFilter struct {
	From   time.Time
	To     time.Time
	Search string
}

// SeriesDeletion reports the outcome of a cascading delete: how many events
// were removed (base plus instances) and which users held at least one
// interaction on any of them.
type SeriesDeletion struct {
	Deleted         int
	AffectedUserIDs []string
}

// EventRepository defines the interface for event storage.
//
// CreateWithSeries persists the base event, its recurrence config, all
// generated instances, and the owner's interactions in a single transaction,
// so a half-generated series is never visible. For non-recurring events both
// config and instances are nil.
//
// DeleteWithInstances removes the event and, when seriesID is set, every
// instance of that series in one transaction. When cancelledBy is set it
// writes one cancellation record per deleted event that has at least one
// interaction, before the deletion. Deleting an already-deleted id returns
// ErrNotFound.
type EventRepository interface {
	CreateWithSeries(ctx context.Context, base *Event, config *RecurrenceConfig, instances []*Event, interactions []*EventInteraction) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListRefsByIDs(ctx context.Context, ids []string) ([]*Event, error)
	ListByIDsFiltered(ctx context.Context, ids []string, filter EventFilter) ([]*Event, error)
	ListInstanceIDsBySeries(ctx context.Context, seriesID string) ([]string, error)
	ListOwnedIDs(ctx context.Context, ownerID string) ([]string, error)
	ListIDsByCalendarIDs(ctx context.Context, calendarIDs []string) ([]string, error)
	DeleteWithInstances(ctx context.Context, eventID string, seriesID *string, cancelledBy *string, message string) (*SeriesDeletion, error)
}

// CreateEventInput is the service-level input for event creation.
type CreateEventInput struct {
	Name        string
	Description string
	StartTime   time.Time
	OwnerID     string
	CalendarID  *string
	Recurrence  *RecurrenceInput
}

// RecurrenceInput describes the requested repeating pattern for a new event.
type RecurrenceInput struct {
	Type     RecurrenceType
	Schedule Schedule
	EndDate  *time.Time
}

// EventService defines event lifecycle operations.
type EventService interface {
	// CreateEvent creates a regular event, or a recurring base event plus its
	// materialized instances when input.Recurrence is set. Returns the base
	// event and the number of instances created.
	CreateEvent(ctx context.Context, input CreateEventInput) (*Event, int, error)
	// DeleteEvent removes the event; for a recurring base it removes the whole
	// series. Returns the number of events deleted. A non-empty message records
	// a cancellation notice per affected event and emails affected users.
	DeleteEvent(ctx context.Context, eventID, callerID, message string) (int, error)
	// GetSchedule returns the recurrence config of a base event.
	GetSchedule(ctx context.Context, eventID, callerID string) (*RecurrenceConfig, error)
	// UpdateSchedule replaces the schedule and end date of a series. Already
	// materialized instances are not regenerated; the new schedule applies only
	// to future expansions.
	UpdateSchedule(ctx context.Context, eventID, callerID string, schedule Schedule, endDate *time.Time) (*RecurrenceConfig, error)
}
