package domain

import (
	"context"
	"time"
)

// EventCancellation is the audit record written for a deleted event that had
// at least one interaction, so subscribers and invitees keep a trace after
// the event rows are gone.
// swagger:model EventCancellation
type EventCancellation struct {
	ID          string    `json:"id"`
	EventID     string    `json:"event_id"`
	EventName   string    `json:"event_name"`
	CancelledBy string    `json:"cancelled_by"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventCancellationRepository defines read access to cancellation records.
// Records are written by EventRepository.DeleteWithInstances inside the
// delete transaction.
type EventCancellationRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*EventCancellation, error)
}

// CancellationNoticeData is the payload for a cancellation notice email.
type CancellationNoticeData struct {
	Email       string
	EventName   string
	CancelledBy string
	Message     string
}

// EmailService sends transactional mail. Implementations may be backed by SES
// or a no-op sender outside production.
type EmailService interface {
	SendCancellationNotice(ctx context.Context, data *CancellationNoticeData) error
}
