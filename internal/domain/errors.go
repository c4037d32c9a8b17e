package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors shared across the engine. Services return these (possibly
// wrapped with %w) and the delivery layer maps them to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
)

// BanError carries the structured detail for a banned-owner rejection so the
// caller can render a meaningful message. It matches ErrForbidden under
// errors.Is.
type BanError struct {
	UserID   string
	Reason   string
	BannedAt time.Time
}

func (e *BanError) Error() string {
	return fmt.Sprintf("user %s is banned: %s", e.UserID, e.Reason)
}

func (e *BanError) Is(target error) bool {
	return target == ErrForbidden
}
