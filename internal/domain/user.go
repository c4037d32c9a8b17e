package domain

import (
	"context"
	"time"
)

// User is the identity collaborator's view of an account. Account management
// and authentication live outside this engine; the engine reads users to
// validate owners, resolve display names, and surface ban details.
// swagger:model User
type User struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	Private     bool       `json:"private"`
	Banned      bool       `json:"banned"`
	BanReason   *string    `json:"ban_reason,omitempty"`
	BannedAt    *time.Time `json:"banned_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID string, expiry time.Duration) (string, error)
}

// UserRepository is the read-only collaborator for user identity lookups.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// ListDisplayNamesByIDs resolves display names for a set of users in one
	// query. Missing ids are absent from the result map.
	ListDisplayNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
	// ListEmailsByIDs resolves email addresses for a set of users in one query.
	ListEmailsByIDs(ctx context.Context, ids []string) (map[string]string, error)
}
