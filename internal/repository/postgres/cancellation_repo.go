package postgres

import (
	"context"
	"database/sql"

	"calport/internal/domain"
)

type eventCancellationRepository struct {
	DB *sql.DB
}

func NewEventCancellationRepository(db *sql.DB) domain.EventCancellationRepository {
	return &eventCancellationRepository{
		DB: db,
	}
}

// ListByUserID returns cancellation records addressed to the user: events
// they had an interaction with when the series was deleted, plus deletions
// they performed themselves. Recipients are snapshotted into
// event_cancellation_recipients during the delete transaction because the
// interactions themselves are removed with the events.
func (r *eventCancellationRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.EventCancellation, error) {
	query := `
		SELECT c.id, c.event_id, c.event_name, c.cancelled_by, c.message, c.created_at
		FROM event_cancellations c
		WHERE c.cancelled_by = $1 OR EXISTS (
			SELECT 1 FROM event_cancellation_recipients r
			WHERE r.cancellation_id = c.id AND r.user_id = $1
		)
		ORDER BY c.created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*domain.EventCancellation, 0)
	for rows.Next() {
		c := &domain.EventCancellation{}
		if err := rows.Scan(&c.ID, &c.EventID, &c.EventName, &c.CancelledBy, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
