package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"calport/internal/domain"
)

type eventInteractionRepository struct {
	DB *sql.DB
}

func NewEventInteractionRepository(db *sql.DB) domain.EventInteractionRepository {
	return &eventInteractionRepository{
		DB: db,
	}
}

const interactionColumns = `id, event_id, user_id, interaction_type, status, invited_by_user_id, created_at, updated_at`

func scanInteraction(row interface{ Scan(...any) error }) (*domain.EventInteraction, error) {
	i := &domain.EventInteraction{}
	var invitedByNull sql.NullString
	err := row.Scan(&i.ID, &i.EventID, &i.UserID, &i.Type, &i.Status, &invitedByNull, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if invitedByNull.Valid {
		i.InvitedBy = &invitedByNull.String
	}
	return i, nil
}

func (r *eventInteractionRepository) CreateBatch(ctx context.Context, interactions []*domain.EventInteraction) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

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

func (r *eventInteractionRepository) GetByID(ctx context.Context, id string) (*domain.EventInteraction, error) {
	query := `SELECT ` + interactionColumns + ` FROM event_interactions WHERE id = $1`
	i, err := scanInteraction(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

func (r *eventInteractionRepository) GetByEventUserType(ctx context.Context, eventID, userID string, typ domain.InteractionType) (*domain.EventInteraction, error) {
	query := `
		SELECT ` + interactionColumns + `
		FROM event_interactions
		WHERE event_id = $1 AND user_id = $2 AND interaction_type = $3
	`
	i, err := scanInteraction(r.DB.QueryRowContext(ctx, query, eventID, userID, typ))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

func (r *eventInteractionRepository) UpdateStatus(ctx context.Context, id string, status domain.InteractionStatus) (*domain.EventInteraction, error) {
	query := `
		UPDATE event_interactions SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + interactionColumns
	i, err := scanInteraction(r.DB.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return i, nil
}

func (r *eventInteractionRepository) RejectWithInstances(ctx context.Context, id, userID string, instanceIDs []string) (*domain.EventInteraction, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	baseQuery := `
		UPDATE event_interactions SET status = 'rejected', updated_at = NOW()
		WHERE id = $1
		RETURNING ` + interactionColumns
	updated, err := scanInteraction(tx.QueryRowContext(ctx, baseQuery, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if len(instanceIDs) > 0 {
		// Only still-pending per-instance invitations follow the base; explicit
		// per-instance decisions stay as they are.
		cascadeQuery := `
			UPDATE event_interactions SET status = 'rejected', updated_at = NOW()
			WHERE event_id = ANY($1) AND user_id = $2 AND interaction_type = 'invited' AND status = 'pending'
		`
		if _, err := tx.ExecContext(ctx, cascadeQuery, pq.Array(instanceIDs), userID); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *eventInteractionRepository) Delete(ctx context.Context, eventID, userID string, typ domain.InteractionType) error {
	query := `DELETE FROM event_interactions WHERE event_id = $1 AND user_id = $2 AND interaction_type = $3`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID, typ)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *eventInteractionRepository) ListEventIDsByUserAndType(ctx context.Context, userID string, typ domain.InteractionType) ([]string, error) {
	query := `SELECT event_id FROM event_interactions WHERE user_id = $1 AND interaction_type = $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, typ)
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

func (r *eventInteractionRepository) ListStatusByUserAndEventIDs(ctx context.Context, userID string, eventIDs []string, typ domain.InteractionType) (map[string]domain.InteractionStatus, error) {
	query := `
		SELECT event_id, status
		FROM event_interactions
		WHERE user_id = $1 AND event_id = ANY($2) AND interaction_type = $3
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(eventIDs), typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	statuses := make(map[string]domain.InteractionStatus)
	for rows.Next() {
		var eventID string
		var status domain.InteractionStatus
		if err := rows.Scan(&eventID, &status); err != nil {
			return nil, err
		}
		statuses[eventID] = status
	}
	return statuses, rows.Err()
}
