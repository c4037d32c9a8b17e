package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"calport/internal/domain"
)

type userBlockRepository struct {
	DB *sql.DB
}

func NewUserBlockRepository(db *sql.DB) domain.UserBlockRepository {
	return &userBlockRepository{
		DB: db,
	}
}

func (r *userBlockRepository) IsBlocked(ctx context.Context, userID, otherID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM user_blocks
			WHERE (blocker_id = $1 AND blocked_id = $2)
			   OR (blocker_id = $2 AND blocked_id = $1)
		)
	`
	var blocked bool
	if err := r.DB.QueryRowContext(ctx, query, userID, otherID).Scan(&blocked); err != nil {
		return false, err
	}
	return blocked, nil
}

func (r *userBlockRepository) ListBlockedAmong(ctx context.Context, userID string, otherIDs []string) (map[string]struct{}, error) {
	query := `
		SELECT CASE WHEN blocker_id = $1 THEN blocked_id ELSE blocker_id END
		FROM user_blocks
		WHERE (blocker_id = $1 AND blocked_id = ANY($2))
		   OR (blocked_id = $1 AND blocker_id = ANY($2))
	`
	rows, err := r.DB.QueryContext(ctx, query, userID, pq.Array(otherIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	blocked := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		blocked[id] = struct{}{}
	}
	return blocked, rows.Err()
}
