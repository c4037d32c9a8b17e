package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"calport/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

// eventColumns selects an event row with its series id: the stored column for
// instances, the joined config id for base events.
const eventColumns = `
	e.id, e.name, e.description, e.start_time, e.kind, e.owner_id, e.calendar_id,
	COALESCE(e.series_id, rc.id), e.created_at, e.updated_at
`

const eventFrom = `
	FROM events e
	LEFT JOIN recurrence_configs rc ON rc.event_id = e.id
`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var calendarNull, seriesNull sql.NullString
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.StartTime, &e.Kind, &e.OwnerID,
		&calendarNull, &seriesNull, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if calendarNull.Valid {
		e.CalendarID = &calendarNull.String
	}
	if seriesNull.Valid {
		e.SeriesID = &seriesNull.String
	}
	return e, nil
}

func (r *eventRepository) CreateWithSeries(ctx context.Context, base *domain.Event, config *domain.RecurrenceConfig, instances []*domain.Event, interactions []*domain.EventInteraction) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertEvent(ctx, tx, base); err != nil {
		return err
	}
	if config != nil {
		if err := insertConfig(ctx, tx, config); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return domain.ErrConflict
			}
			return err
		}
	}
	for _, inst := range instances {
		if err := insertEvent(ctx, tx, inst); err != nil {
			return err
		}
	}
	for _, i := range interactions {
		if err := insertInteraction(ctx, tx, i); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return domain.ErrConflict
			}
			return err
		}
	}
	return tx.Commit()
}

func insertEvent(ctx context.Context, tx *sql.Tx, e *domain.Event) error {
	query := `
		INSERT INTO events (id, name, description, start_time, kind, owner_id, calendar_id, series_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		e.ID, e.Name, e.Description, e.StartTime, e.Kind, e.OwnerID, e.CalendarID, e.SeriesID, e.CreatedAt, e.UpdatedAt)
	return err
}

func insertConfig(ctx context.Context, tx *sql.Tx, c *domain.RecurrenceConfig) error {
	query := `
		INSERT INTO recurrence_configs (id, event_id, recurrence_type, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, query, c.ID, c.EventID, c.Type, c.EndDate, c.CreatedAt, c.UpdatedAt); err != nil {
		return err
	}
	return insertRules(ctx, tx, c)
}

func insertInteraction(ctx context.Context, tx *sql.Tx, i *domain.EventInteraction) error {
	query := `
		INSERT INTO event_interactions (id, event_id, user_id, interaction_type, status, invited_by_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		i.ID, i.EventID, i.UserID, i.Type, i.Status, i.InvitedBy, i.CreatedAt, i.UpdatedAt)
	return err
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + `WHERE e.id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListRefsByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + `WHERE e.id = ANY($1)`
	return r.queryEvents(ctx, query, pq.Array(ids))
}

func (r *eventRepository) ListByIDsFiltered(ctx context.Context, ids []string, filter domain.EventFilter) ([]*domain.Event, error) {
	query := `SELECT` + eventColumns + eventFrom + `
		WHERE e.id = ANY($1)
		  AND e.start_time >= $2
		  AND e.start_time <= $3
		  AND ($4 = '' OR e.name ILIKE '%' || $4 || '%')
		ORDER BY e.start_time ASC
	`
	return r.queryEvents(ctx, query, pq.Array(ids), filter.From, filter.To, filter.Search)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) ListInstanceIDsBySeries(ctx context.Context, seriesID string) ([]string, error) {
	query := `SELECT id FROM events WHERE series_id = $1 ORDER BY start_time ASC`
	return r.queryIDs(ctx, query, seriesID)
}

func (r *eventRepository) ListOwnedIDs(ctx context.Context, ownerID string) ([]string, error) {
	query := `SELECT id FROM events WHERE owner_id = $1`
	return r.queryIDs(ctx, query, ownerID)
}

func (r *eventRepository) ListIDsByCalendarIDs(ctx context.Context, calendarIDs []string) ([]string, error) {
	query := `SELECT id FROM events WHERE calendar_id = ANY($1)`
	return r.queryIDs(ctx, query, pq.Array(calendarIDs))
}

func (r *eventRepository) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *eventRepository) DeleteWithInstances(ctx context.Context, eventID string, seriesID *string, cancelledBy *string, message string) (*domain.SeriesDeletion, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Interactions on the doomed events, captured before anything is removed.
	affectedQuery := `
		SELECT DISTINCT i.user_id
		FROM event_interactions i
		JOIN events e ON e.id = i.event_id
		WHERE e.id = $1 OR ($2::text IS NOT NULL AND e.series_id = $2)
	`
	rows, err := tx.QueryContext(ctx, affectedQuery, eventID, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list affected users: %w", err)
	}
	affected := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		affected = append(affected, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if cancelledBy != nil {
		cancelQuery := `
			INSERT INTO event_cancellations (event_id, event_name, cancelled_by, message, created_at)
			SELECT e.id, e.name, $3, $4, NOW()
			FROM events e
			WHERE (e.id = $1 OR ($2::text IS NOT NULL AND e.series_id = $2))
			  AND EXISTS (SELECT 1 FROM event_interactions i WHERE i.event_id = e.id)
		`
		if _, err := tx.ExecContext(ctx, cancelQuery, eventID, seriesID, *cancelledBy, message); err != nil {
			return nil, fmt.Errorf("record cancellations: %w", err)
		}
		// Snapshot the recipients while the interactions still exist.
		recipientQuery := `
			INSERT INTO event_cancellation_recipients (cancellation_id, user_id)
			SELECT DISTINCT c.id, i.user_id
			FROM event_cancellations c
			JOIN event_interactions i ON i.event_id = c.event_id
			JOIN events e ON e.id = c.event_id
			WHERE e.id = $1 OR ($2::text IS NOT NULL AND e.series_id = $2)
		`
		if _, err := tx.ExecContext(ctx, recipientQuery, eventID, seriesID); err != nil {
			return nil, fmt.Errorf("record cancellation recipients: %w", err)
		}
	}

	deleteQuery := `DELETE FROM events WHERE id = $1 OR ($2::text IS NOT NULL AND series_id = $2)`
	result, err := tx.ExecContext(ctx, deleteQuery, eventID, seriesID)
	if err != nil {
		return nil, fmt.Errorf("delete events: %w", err)
	}
	deleted, _ := result.RowsAffected()
	if deleted == 0 {
		return nil, domain.ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.SeriesDeletion{Deleted: int(deleted), AffectedUserIDs: affected}, nil
}
