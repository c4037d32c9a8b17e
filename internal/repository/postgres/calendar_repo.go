package postgres

import (
	"context"
	"database/sql"

	"calport/internal/domain"
)

type calendarMembershipRepository struct {
	DB *sql.DB
}

func NewCalendarMembershipRepository(db *sql.DB) domain.CalendarMembershipRepository {
	return &calendarMembershipRepository{
		DB: db,
	}
}

func (r *calendarMembershipRepository) ListAdminCalendarIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT calendar_id
		FROM calendar_memberships
		WHERE user_id = $1 AND status = 'accepted' AND role IN ('owner', 'admin')
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
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
