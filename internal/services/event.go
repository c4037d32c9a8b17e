package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"calport/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	configRepo     domain.RecurrenceConfigRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	logger         *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository,
	configRepo domain.RecurrenceConfigRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	logger *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		configRepo:     configRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		logger:         logger,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, input domain.CreateEventInput) (*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if input.Name == "" {
		return nil, 0, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if input.StartTime.IsZero() {
		return nil, 0, fmt.Errorf("%w: start_time is required", domain.ErrInvalidInput)
	}

	owner, err := s.userRepo.GetByID(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get owner: %w", err)
	}
	if owner.Banned {
		banErr := &domain.BanError{UserID: owner.ID}
		if owner.BanReason != nil {
			banErr.Reason = *owner.BanReason
		}
		if owner.BannedAt != nil {
			banErr.BannedAt = *owner.BannedAt
		}
		return nil, 0, banErr
	}

	now := time.Now()
	kind := domain.EventKindRegular
	if input.Recurrence != nil {
		kind = domain.EventKindRecurringBase
	}
	base := domain.NewEvent(uuid.NewString(), input.Name, input.Description, input.StartTime, kind, input.OwnerID, input.CalendarID, now, now)

	var config *domain.RecurrenceConfig
	var instances []*domain.Event
	if input.Recurrence != nil {
		config, err = validateRecurrenceInput(base.ID, input.Recurrence, now)
		if err != nil {
			return nil, 0, err
		}
		instances, err = ExpandSeries(base, config)
		if err != nil {
			return nil, 0, err
		}
	}

	interactions := ownerInteractions(input.OwnerID, append([]*domain.Event{base}, instances...), now)
	if err := s.eventRepo.CreateWithSeries(ctx, base, config, instances, interactions); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, 0, domain.ErrConflict
		}
		return nil, 0, fmt.Errorf("create event: %w", err)
	}
	return base, len(instances), nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, callerID, message string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID {
		return 0, domain.ErrForbidden
	}

	var seriesID *string
	if event.Kind == domain.EventKindRecurringBase {
		config, err := s.configRepo.GetByEventID(ctx, eventID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return 0, fmt.Errorf("get recurrence config: %w", err)
		}
		if config != nil {
			seriesID = &config.ID
		}
	}

	var cancelledBy *string
	if message != "" {
		cancelledBy = &callerID
	}
	deletion, err := s.eventRepo.DeleteWithInstances(ctx, eventID, seriesID, cancelledBy, message)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("delete event: %w", err)
	}

	if message != "" && len(deletion.AffectedUserIDs) > 0 {
		s.sendCancellationNotices(ctx, event, callerID, message, deletion.AffectedUserIDs)
	}
	return deletion.Deleted, nil
}

// sendCancellationNotices emails affected users after the delete committed.
// Failures are logged, never surfaced: the cancellation records are the
// durable audit trail.
func (s *eventService) sendCancellationNotices(ctx context.Context, event *domain.Event, callerID, message string, userIDs []string) {
	emails, err := s.userRepo.ListEmailsByIDs(ctx, userIDs)
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve emails for cancellation notices", "event_id", event.ID, "err", err)
		return
	}
	names, err := s.userRepo.ListDisplayNamesByIDs(ctx, []string{callerID})
	if err != nil {
		s.logger.ErrorContext(ctx, "resolve canceller name", "event_id", event.ID, "err", err)
	}
	cancelledBy := names[callerID]
	for _, userID := range userIDs {
		if userID == callerID {
			continue
		}
		email, ok := emails[userID]
		if !ok || email == "" {
			continue
		}
		data := &domain.CancellationNoticeData{
			Email:       email,
			EventName:   event.Name,
			CancelledBy: cancelledBy,
			Message:     message,
		}
		if err := s.emailService.SendCancellationNotice(ctx, data); err != nil {
			s.logger.ErrorContext(ctx, "send cancellation notice", "event_id", event.ID, "user_id", userID, "err", err)
		}
	}
}

func (s *eventService) GetSchedule(ctx context.Context, eventID, callerID string) (*domain.RecurrenceConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	config, err := s.configRepo.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get recurrence config: %w", err)
	}
	return config, nil
}

// UpdateSchedule replaces the rule set and end date of a series. Already
// materialized instances are left as they are; the new schedule only governs
// future expansions.
func (s *eventService) UpdateSchedule(ctx context.Context, eventID, callerID string, schedule domain.Schedule, endDate *time.Time) (*domain.RecurrenceConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != callerID {
		return nil, domain.ErrForbidden
	}
	config, err := s.configRepo.GetByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get recurrence config: %w", err)
	}

	replacement := &domain.RecurrenceConfig{
		ID:       config.ID,
		EventID:  config.EventID,
		Type:     config.Type,
		Schedule: schedule,
		EndDate:  endDate,
	}
	if err := replacement.Validate(); err != nil {
		return nil, fmt.Errorf("validate schedule: %w", err)
	}

	updated, err := s.configRepo.UpdateSchedule(ctx, config.ID, schedule, endDate)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return updated, nil
}
