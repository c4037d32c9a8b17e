package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"calport/internal/domain"
)

type interactionService struct {
	interactionRepo domain.EventInteractionRepository
	eventRepo       domain.EventRepository
	blockRepo       domain.UserBlockRepository
	contextTimeout  time.Duration
}

func NewInteractionService(interactionRepo domain.EventInteractionRepository,
	eventRepo domain.EventRepository,
	blockRepo domain.UserBlockRepository,
	timeout time.Duration,
) domain.InteractionService {
	return &interactionService{
		interactionRepo: interactionRepo,
		eventRepo:       eventRepo,
		blockRepo:       blockRepo,
		contextTimeout:  timeout,
	}
}

func (s *interactionService) Invite(ctx context.Context, eventID, inviterID, inviteeID string) (*domain.EventInteraction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if inviterID == inviteeID {
		return nil, fmt.Errorf("%w: cannot invite yourself", domain.ErrInvalidInput)
	}
	blocked, err := s.blockRepo.IsBlocked(ctx, inviterID, inviteeID)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return nil, domain.ErrForbidden
	}
	return s.createOnSeries(ctx, eventID, inviteeID, domain.InteractionInvited, domain.StatusPending, &inviterID)
}

func (s *interactionService) Subscribe(ctx context.Context, eventID, userID string) (*domain.EventInteraction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.createOnSeries(ctx, eventID, userID, domain.InteractionSubscribed, domain.StatusAccepted, nil)
}

func (s *interactionService) Join(ctx context.Context, eventID, userID string) (*domain.EventInteraction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return s.createOnSeries(ctx, eventID, userID, domain.InteractionJoined, domain.StatusAccepted, nil)
}

// createOnSeries creates the interaction on the event and, when the event is
// a recurring base, mirrors it onto every instance of the series, all in one
// batch. Returns the interaction created on the addressed event.
func (s *interactionService) createOnSeries(ctx context.Context, eventID, userID string, typ domain.InteractionType, status domain.InteractionStatus, invitedBy *string) (*domain.EventInteraction, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	blocked, err := s.blockRepo.IsBlocked(ctx, userID, event.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("check block: %w", err)
	}
	if blocked {
		return nil, domain.ErrForbidden
	}

	eventIDs := []string{event.ID}
	if event.Kind == domain.EventKindRecurringBase && event.SeriesID != nil {
		instanceIDs, err := s.eventRepo.ListInstanceIDsBySeries(ctx, *event.SeriesID)
		if err != nil {
			return nil, fmt.Errorf("list instances: %w", err)
		}
		eventIDs = append(eventIDs, instanceIDs...)
	}

	now := time.Now()
	batch := make([]*domain.EventInteraction, 0, len(eventIDs))
	for _, id := range eventIDs {
		batch = append(batch, domain.NewEventInteraction(uuid.NewString(), id, userID, typ, status, invitedBy, now, now))
	}
	if err := s.interactionRepo.CreateBatch(ctx, batch); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrConflict
		}
		return nil, fmt.Errorf("create interactions: %w", err)
	}
	return batch[0], nil
}

func (s *interactionService) Leave(ctx context.Context, eventID, userID string, typ domain.InteractionType) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.interactionRepo.Delete(ctx, eventID, userID, typ); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete interaction: %w", err)
	}
	return nil
}

func (s *interactionService) UpdateStatus(ctx context.Context, interactionID, callerID string, status domain.InteractionStatus) (*domain.EventInteraction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if status != domain.StatusAccepted && status != domain.StatusRejected {
		return nil, fmt.Errorf("%w: status must be accepted or rejected", domain.ErrInvalidInput)
	}

	interaction, err := s.interactionRepo.GetByID(ctx, interactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get interaction: %w", err)
	}
	if interaction.UserID != callerID {
		return nil, domain.ErrForbidden
	}
	if interaction.Type != domain.InteractionInvited {
		return nil, fmt.Errorf("%w: only invitations can be accepted or rejected", domain.ErrInvalidInput)
	}

	if status == domain.StatusRejected {
		return s.rejectWithCascade(ctx, interaction)
	}

	updated, err := s.interactionRepo.UpdateStatus(ctx, interactionID, status)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update interaction: %w", err)
	}
	return updated, nil
}

// rejectWithCascade rejects the invitation and, when it sits on a recurring
// base event, bulk-rejects the caller's still-pending per-instance
// invitations in the same transaction. Per-instance decisions already made
// (accepted or rejected) are never overridden.
func (s *interactionService) rejectWithCascade(ctx context.Context, interaction *domain.EventInteraction) (*domain.EventInteraction, error) {
	event, err := s.eventRepo.GetByID(ctx, interaction.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	var instanceIDs []string
	if event.Kind == domain.EventKindRecurringBase && event.SeriesID != nil {
		instanceIDs, err = s.eventRepo.ListInstanceIDsBySeries(ctx, *event.SeriesID)
		if err != nil {
			return nil, fmt.Errorf("list instances: %w", err)
		}
	}

	updated, err := s.interactionRepo.RejectWithInstances(ctx, interaction.ID, interaction.UserID, instanceIDs)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("reject invitation: %w", err)
	}
	return updated, nil
}
