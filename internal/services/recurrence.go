package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"calport/internal/domain"
)

// openEndedHorizon bounds expansion of series without an end date. The
// reference behavior is a rolling horizon, not true infinity: callers wanting
// fresh instances past the horizon re-run expansion.
const openEndedHorizon = 366 * 24 * time.Hour

// maxInstancesPerSeries is a safety cap against runaway expansions.
const maxInstancesPerSeries = 1000

// dateIterator produces a finite, restartable sequence of candidate calendar
// days from start through end inclusive, at midnight in the given location.
type dateIterator struct {
	start, end time.Time
	cur        time.Time
}

func newDateIterator(start, end time.Time) *dateIterator {
	return &dateIterator{start: start, end: end, cur: start}
}

// Next returns the next candidate day, or false when the sequence is
// exhausted.
func (it *dateIterator) Next() (time.Time, bool) {
	if it.cur.After(it.end) {
		return time.Time{}, false
	}
	d := it.cur
	it.cur = it.cur.AddDate(0, 0, 1)
	return d, true
}

// Reset restarts the sequence from its first day.
func (it *dateIterator) Reset() {
	it.cur = it.start
}

// ExpandSeries materializes the instance events of a recurring series. It
// walks the calendar day by day from the base event's start date through the
// config's end date inclusive (or the rolling horizon for open-ended series)
// and emits one instance per schedule rule matching the day. Daily and weekly
// instances start at the rule's time of day; monthly and yearly rules
// represent whole-day events and start at midnight. Every instance carries
// the base's name, description, owner, and calendar, with
// Kind = recurring_instance and SeriesID = config.ID.
//
// A malformed schedule fails fast with an error matching
// domain.ErrInvalidInput and no instances.
func ExpandSeries(base *domain.Event, config *domain.RecurrenceConfig) ([]*domain.Event, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	loc := base.StartTime.Location()
	startDay := time.Date(base.StartTime.Year(), base.StartTime.Month(), base.StartTime.Day(), 0, 0, 0, 0, loc)
	var endDay time.Time
	if config.EndDate != nil {
		e := config.EndDate.In(loc)
		endDay = time.Date(e.Year(), e.Month(), e.Day(), 0, 0, 0, 0, loc)
	} else {
		endDay = startDay.Add(openEndedHorizon)
	}

	instances := make([]*domain.Event, 0)
	it := newDateIterator(startDay, endDay)
	for {
		day, ok := it.Next()
		if !ok {
			break
		}
		for _, start := range matchDay(day, config) {
			instances = append(instances, newInstance(base, config, start))
			if len(instances) >= maxInstancesPerSeries {
				return instances, nil
			}
		}
	}
	return instances, nil
}

// matchDay returns the start timestamps the schedule produces on the given
// day, in schedule rule order.
func matchDay(day time.Time, config *domain.RecurrenceConfig) []time.Time {
	var starts []time.Time
	switch config.Type {
	case domain.RecurrenceDaily, domain.RecurrenceWeekly:
		for _, r := range config.Schedule.Weekdays {
			if day.Weekday() == r.Weekday {
				starts = append(starts, time.Date(day.Year(), day.Month(), day.Day(), r.At.Hour, r.At.Minute, 0, 0, day.Location()))
			}
		}
	case domain.RecurrenceMonthly:
		for _, r := range config.Schedule.MonthDays {
			if day.Day() == r.Day {
				starts = append(starts, day)
			}
		}
	case domain.RecurrenceYearly:
		for _, r := range config.Schedule.YearDays {
			if day.Month() == r.Month && day.Day() == r.Day {
				starts = append(starts, day)
			}
		}
	}
	return starts
}

func newInstance(base *domain.Event, config *domain.RecurrenceConfig, start time.Time) *domain.Event {
	seriesID := config.ID
	return &domain.Event{
		ID:          uuid.NewString(),
		Name:        base.Name,
		Description: base.Description,
		StartTime:   start,
		Kind:        domain.EventKindRecurringInstance,
		OwnerID:     base.OwnerID,
		CalendarID:  base.CalendarID,
		SeriesID:    &seriesID,
		CreatedAt:   base.CreatedAt,
		UpdatedAt:   base.UpdatedAt,
	}
}

// ownerInteractions returns the owner's joined interactions for the base and
// every instance, mirroring the base owner's relationship onto the series.
func ownerInteractions(ownerID string, events []*domain.Event, now time.Time) []*domain.EventInteraction {
	out := make([]*domain.EventInteraction, 0, len(events))
	for _, e := range events {
		out = append(out, domain.NewEventInteraction(
			uuid.NewString(), e.ID, ownerID,
			domain.InteractionJoined, domain.StatusAccepted, nil, now, now,
		))
	}
	return out
}

// validateRecurrenceInput builds a RecurrenceConfig from service input and
// validates it against the base event.
func validateRecurrenceInput(eventID string, in *domain.RecurrenceInput, now time.Time) (*domain.RecurrenceConfig, error) {
	config := &domain.RecurrenceConfig{
		ID:        uuid.NewString(),
		EventID:   eventID,
		Type:      in.Type,
		Schedule:  in.Schedule,
		EndDate:   in.EndDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate schedule: %w", err)
	}
	return config, nil
}
