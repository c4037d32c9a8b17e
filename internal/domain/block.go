package domain

import "context"

// UserBlock is a directed blocker-to-blocked pair. A block in either
// direction hides the blocked side's events from the other's aggregated view
// and forbids new interactions between the pair.
type UserBlock struct {
	BlockerID string `json:"blocker_id"`
	BlockedID string `json:"blocked_id"`
}

// UserBlockRepository is the read-only collaborator for block lookups.
type UserBlockRepository interface {
	// IsBlocked reports whether a block exists between the two users in either
	// direction.
	IsBlocked(ctx context.Context, userID, otherID string) (bool, error)
	// ListBlockedAmong returns the subset of otherIDs that have a block with
	// userID in either direction. Batch form used by the feed assembler to
	// avoid a per-event query.
	ListBlockedAmong(ctx context.Context, userID string, otherIDs []string) (map[string]struct{}, error)
}
