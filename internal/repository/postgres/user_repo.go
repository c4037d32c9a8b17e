package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"calport/internal/domain"
)

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{
		DB: db,
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, display_name, email, private, banned, ban_reason, banned_at, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	u := &domain.User{}
	var reasonNull sql.NullString
	var bannedAtNull sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.DisplayName, &u.Email, &u.Private, &u.Banned,
		&reasonNull, &bannedAtNull, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if reasonNull.Valid {
		u.BanReason = &reasonNull.String
	}
	if bannedAtNull.Valid {
		u.BannedAt = &bannedAtNull.Time
	}
	return u, nil
}

func (r *userRepository) ListDisplayNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	query := `SELECT id, display_name FROM users WHERE id = ANY($1)`
	return r.queryStringMap(ctx, query, ids)
}

func (r *userRepository) ListEmailsByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	query := `SELECT id, email FROM users WHERE id = ANY($1)`
	return r.queryStringMap(ctx, query, ids)
}

func (r *userRepository) queryStringMap(ctx context.Context, query string, ids []string) (map[string]string, error) {
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, value string
		if err := rows.Scan(&id, &value); err != nil {
			return nil, err
		}
		out[id] = value
	}
	return out, rows.Err()
}
