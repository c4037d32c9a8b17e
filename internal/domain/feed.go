package domain

import (
	"context"
	"time"
)

// SourceChannel is the access relationship that explains why a viewer sees an
// event. When an event is reachable through several channels the highest
// priority channel wins: owned > subscribed > invited > calendar.
type SourceChannel string

const (
	ChannelOwned      SourceChannel = "owned"
	ChannelSubscribed SourceChannel = "subscribed"
	ChannelInvited    SourceChannel = "invited"
	ChannelCalendar   SourceChannel = "calendar"
)

// FeedQuery narrows and pages a viewer's aggregated event list.
type FeedQuery struct {
	From   time.Time
	To     time.Time
	Search string
	Limit  int
	Offset int
}

// FeedItem is one enriched event in a viewer's aggregated list.
// OwnerDisplayName is "Me" when the viewer owns the event.
// swagger:model FeedItem
type FeedItem struct {
	Event            *Event        `json:"event"`
	SourceChannel    SourceChannel `json:"source_channel"`
	IsOwner          bool          `json:"is_owner"`
	OwnerDisplayName string        `json:"owner_display_name"`
}

// FeedService aggregates every event a viewer can reach through ownership,
// subscription, invitation, or calendar membership, resolves series
// visibility, and returns an ordered, filtered, paginated page.
type FeedService interface {
	ListFeed(ctx context.Context, viewerID string, query FeedQuery) ([]*FeedItem, error)
	// ListCancellations returns the viewer's cancellation audit trail: notices
	// for deleted events the viewer had an interaction with.
	ListCancellations(ctx context.Context, viewerID string) ([]*EventCancellation, error)
}
