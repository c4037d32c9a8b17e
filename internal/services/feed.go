package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"calport/internal/domain"
)

type feedService struct {
	eventRepo        domain.EventRepository
	interactionRepo  domain.EventInteractionRepository
	calendarRepo     domain.CalendarMembershipRepository
	blockRepo        domain.UserBlockRepository
	userRepo         domain.UserRepository
	cancellationRepo domain.EventCancellationRepository
	contextTimeout   time.Duration
}

func NewFeedService(eventRepo domain.EventRepository,
	interactionRepo domain.EventInteractionRepository,
	calendarRepo domain.CalendarMembershipRepository,
	blockRepo domain.UserBlockRepository,
	userRepo domain.UserRepository,
	cancellationRepo domain.EventCancellationRepository,
	timeout time.Duration,
) domain.FeedService {
	return &feedService{
		eventRepo:        eventRepo,
		interactionRepo:  interactionRepo,
		calendarRepo:     calendarRepo,
		blockRepo:        blockRepo,
		userRepo:         userRepo,
		cancellationRepo: cancellationRepo,
		contextTimeout:   timeout,
	}
}

// channelClaim is one access channel's set of reachable event ids.
type channelClaim struct {
	Channel domain.SourceChannel
	IDs     []string
}

// mergeChannels resolves each event id to the highest priority channel that
// claims it. Claims must be ordered by priority; the first claim wins. The
// winning channel is the id's recorded source for downstream display and
// decides which visibility rules apply.
func mergeChannels(claims []channelClaim) map[string]domain.SourceChannel {
	merged := make(map[string]domain.SourceChannel)
	for _, claim := range claims {
		for _, id := range claim.IDs {
			if _, ok := merged[id]; !ok {
				merged[id] = claim.Channel
			}
		}
	}
	return merged
}

// collectChannels runs the four access channel queries for the viewer and
// merges them with the fixed priority owned > subscribed > invited > calendar.
func (s *feedService) collectChannels(ctx context.Context, viewerID string) (map[string]domain.SourceChannel, error) {
	owned, err := s.eventRepo.ListOwnedIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("collect owned: %w", err)
	}
	subscribed, err := s.interactionRepo.ListEventIDsByUserAndType(ctx, viewerID, domain.InteractionSubscribed)
	if err != nil {
		return nil, fmt.Errorf("collect subscribed: %w", err)
	}
	invited, err := s.interactionRepo.ListEventIDsByUserAndType(ctx, viewerID, domain.InteractionInvited)
	if err != nil {
		return nil, fmt.Errorf("collect invited: %w", err)
	}
	calendarIDs, err := s.calendarRepo.ListAdminCalendarIDs(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("collect calendar memberships: %w", err)
	}
	var calendar []string
	if len(calendarIDs) > 0 {
		calendar, err = s.eventRepo.ListIDsByCalendarIDs(ctx, calendarIDs)
		if err != nil {
			return nil, fmt.Errorf("collect calendar events: %w", err)
		}
	}
	return mergeChannels([]channelClaim{
		{domain.ChannelOwned, owned},
		{domain.ChannelSubscribed, subscribed},
		{domain.ChannelInvited, invited},
		{domain.ChannelCalendar, calendar},
	}), nil
}

// resolveVisibility decides, per recurring series, whether the viewer sees
// the base event or its instances, and returns the final included id set with
// each id's source channel.
//
// A viewer with full access to a series (owned, subscribed, or calendar
// channel on the base, or an accepted invitation) sees the instances, never
// the base, and every instance inherits the base's channel. A viewer with a
// pending invitation sees only the base: one decision point instead of one
// near-duplicate invitation per occurrence. A rejected or absent invitation
// hides the series entirely. Regular events pass through on their own
// channel, except when reachable only through a rejected invitation.
func (s *feedService) resolveVisibility(ctx context.Context, viewerID string, merged map[string]domain.SourceChannel) (map[string]domain.SourceChannel, error) {
	if len(merged) == 0 {
		return map[string]domain.SourceChannel{}, nil
	}
	ids := make([]string, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	refs, err := s.eventRepo.ListRefsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list event refs: %w", err)
	}

	var baseIDs []string
	for _, ref := range refs {
		if ref.Kind == domain.EventKindRecurringBase {
			baseIDs = append(baseIDs, ref.ID)
		}
	}
	inviteStatus := map[string]domain.InteractionStatus{}
	if len(baseIDs) > 0 {
		inviteStatus, err = s.interactionRepo.ListStatusByUserAndEventIDs(ctx, viewerID, baseIDs, domain.InteractionInvited)
		if err != nil {
			return nil, fmt.Errorf("list invitation statuses: %w", err)
		}
	}

	type seriesState struct {
		base      *domain.Event
		instances []*domain.Event
	}
	series := make(map[string]*seriesState)
	included := make(map[string]domain.SourceChannel)

	for _, ref := range refs {
		switch ref.Kind {
		case domain.EventKindRecurringBase, domain.EventKindRecurringInstance:
			if ref.SeriesID == nil {
				continue
			}
			st := series[*ref.SeriesID]
			if st == nil {
				st = &seriesState{}
				series[*ref.SeriesID] = st
			}
			if ref.Kind == domain.EventKindRecurringBase {
				st.base = ref
			} else {
				st.instances = append(st.instances, ref)
			}
		default:
			channel := merged[ref.ID]
			if channel == domain.ChannelInvited {
				status, err := s.regularInviteStatus(ctx, viewerID, ref.ID)
				if err != nil {
					return nil, err
				}
				if status == domain.StatusRejected {
					continue
				}
			}
			included[ref.ID] = channel
		}
	}

	for _, st := range series {
		if st.base == nil {
			// The viewer reaches instances but has no recorded relation to the
			// base: the series stays hidden.
			continue
		}
		channel, ok := merged[st.base.ID]
		if !ok {
			continue
		}
		status, invited := inviteStatus[st.base.ID]

		fullAccess := channel == domain.ChannelOwned ||
			channel == domain.ChannelSubscribed ||
			channel == domain.ChannelCalendar ||
			(invited && status == domain.StatusAccepted)

		switch {
		case fullAccess:
			// The base is hidden even when the series has no instances.
			for _, inst := range st.instances {
				included[inst.ID] = channel
			}
		case invited && status == domain.StatusPending:
			included[st.base.ID] = channel
		}
	}
	return included, nil
}

func (s *feedService) regularInviteStatus(ctx context.Context, viewerID, eventID string) (domain.InteractionStatus, error) {
	interaction, err := s.interactionRepo.GetByEventUserType(ctx, eventID, viewerID, domain.InteractionInvited)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("get invitation: %w", err)
	}
	return interaction.Status, nil
}

// ListFeed aggregates, filters, sorts, paginates, and enriches the viewer's
// event list.
func (s *feedService) ListFeed(ctx context.Context, viewerID string, query domain.FeedQuery) ([]*domain.FeedItem, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	merged, err := s.collectChannels(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	included, err := s.resolveVisibility(ctx, viewerID, merged)
	if err != nil {
		return nil, err
	}
	if len(included) == 0 {
		return []*domain.FeedItem{}, nil
	}

	ids := make([]string, 0, len(included))
	for id := range included {
		ids = append(ids, id)
	}
	events, err := s.eventRepo.ListByIDsFiltered(ctx, ids, domain.EventFilter{
		From:   query.From,
		To:     query.To,
		Search: query.Search,
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events, err = s.excludeBlockedOwners(ctx, viewerID, events)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartTime.Before(events[j].StartTime)
	})
	events = paginate(events, query.Offset, query.Limit)

	return s.enrich(ctx, viewerID, events, included)
}

// excludeBlockedOwners drops events whose owner has a mutual block with the
// viewer. The block lookup runs once for all distinct owners on the page.
func (s *feedService) excludeBlockedOwners(ctx context.Context, viewerID string, events []*domain.Event) ([]*domain.Event, error) {
	ownerSet := make(map[string]struct{})
	for _, e := range events {
		if e.OwnerID != viewerID {
			ownerSet[e.OwnerID] = struct{}{}
		}
	}
	if len(ownerSet) == 0 {
		return events, nil
	}
	ownerIDs := make([]string, 0, len(ownerSet))
	for id := range ownerSet {
		ownerIDs = append(ownerIDs, id)
	}
	blocked, err := s.blockRepo.ListBlockedAmong(ctx, viewerID, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("list blocked owners: %w", err)
	}
	if len(blocked) == 0 {
		return events, nil
	}
	out := events[:0]
	for _, e := range events {
		if _, hidden := blocked[e.OwnerID]; hidden {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func paginate(events []*domain.Event, offset, limit int) []*domain.Event {
	if offset >= len(events) {
		return []*domain.Event{}
	}
	events = events[offset:]
	if limit > 0 && limit < len(events) {
		events = events[:limit]
	}
	return events
}

// enrich attaches ownership, owner display names (batch-fetched for the
// page's distinct owners), and source channels, and rounds start times down
// to the 5-minute boundary.
func (s *feedService) enrich(ctx context.Context, viewerID string, events []*domain.Event, included map[string]domain.SourceChannel) ([]*domain.FeedItem, error) {
	ownerSet := make(map[string]struct{})
	for _, e := range events {
		if e.OwnerID != viewerID {
			ownerSet[e.OwnerID] = struct{}{}
		}
	}
	names := map[string]string{}
	if len(ownerSet) > 0 {
		ownerIDs := make([]string, 0, len(ownerSet))
		for id := range ownerSet {
			ownerIDs = append(ownerIDs, id)
		}
		var err error
		names, err = s.userRepo.ListDisplayNamesByIDs(ctx, ownerIDs)
		if err != nil {
			return nil, fmt.Errorf("list owner names: %w", err)
		}
	}

	items := make([]*domain.FeedItem, 0, len(events))
	for _, e := range events {
		e.StartTime = roundToFiveMinutes(e.StartTime)
		item := &domain.FeedItem{
			Event:         e,
			SourceChannel: included[e.ID],
			IsOwner:       e.OwnerID == viewerID,
		}
		if item.IsOwner {
			item.OwnerDisplayName = "Me"
		} else {
			item.OwnerDisplayName = names[e.OwnerID]
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *feedService) ListCancellations(ctx context.Context, viewerID string) ([]*domain.EventCancellation, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	cancellations, err := s.cancellationRepo.ListByUserID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list cancellations: %w", err)
	}
	if cancellations == nil {
		cancellations = []*domain.EventCancellation{}
	}
	return cancellations, nil
}

// roundToFiveMinutes rounds down to the nearest 5-minute boundary
// (round-half-down: integer-divide minutes by 5), zeroing seconds.
func roundToFiveMinutes(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()-t.Minute()%5, 0, 0, t.Location())
}
