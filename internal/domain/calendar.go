package domain

import "context"

// CalendarRole is a user's role within a calendar.
type CalendarRole string

const (
	CalendarRoleOwner  CalendarRole = "owner"
	CalendarRoleAdmin  CalendarRole = "admin"
	CalendarRoleMember CalendarRole = "member"
)

// MembershipStatus is the state of a calendar membership.
type MembershipStatus string

const (
	MembershipPending  MembershipStatus = "pending"
	MembershipAccepted MembershipStatus = "accepted"
)

// CalendarMembership ties a user to a calendar with a role. Membership
// management lives outside this engine; the engine only reads memberships to
// grant implicit event access. Only an accepted owner or admin membership
// grants access to all events in the calendar.
type CalendarMembership struct {
	CalendarID string           `json:"calendar_id"`
	UserID     string           `json:"user_id"`
	Role       CalendarRole     `json:"role"`
	Status     MembershipStatus `json:"status"`
}

// CalendarMembershipRepository is the read-only collaborator for calendar
// membership lookups.
type CalendarMembershipRepository interface {
	// ListAdminCalendarIDs returns the calendars where the user holds an
	// accepted owner or admin membership.
	ListAdminCalendarIDs(ctx context.Context, userID string) ([]string, error)
}
