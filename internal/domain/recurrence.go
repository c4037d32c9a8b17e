package domain

import (
	"context"
	"fmt"
	"time"
)

// RecurrenceType is the repeat cadence of a series.
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"
)

// TimeOfDay is a wall-clock time within a day.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// WeekdayTimeRule schedules an occurrence on a weekday at a time of day.
// Used by daily and weekly series. Weekday numbering is time.Weekday
// (Sunday = 0 through Saturday = 6).
type WeekdayTimeRule struct {
	Weekday time.Weekday `json:"weekday"`
	At      TimeOfDay    `json:"at"`
}

// MonthDayRule schedules a whole-day occurrence on a day of every month
// (1-31). Used by monthly series such as rent due dates.
type MonthDayRule struct {
	Day int `json:"day"`
}

// YearDayRule schedules a whole-day occurrence on a month and day of every
// year. Month numbering is time.Month (January = 1 through December = 12).
// Used by yearly series such as birthdays.
type YearDayRule struct {
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// Schedule is the ordered rule set of a series. Exactly one of the slices is
// populated, matching the recurrence type: Weekdays for daily and weekly,
// MonthDays for monthly, YearDays for yearly. Malformed combinations are
// unrepresentable through the service layer; Validate enforces the pairing.
type Schedule struct {
	Weekdays  []WeekdayTimeRule `json:"weekdays,omitempty"`
	MonthDays []MonthDayRule    `json:"month_days,omitempty"`
	YearDays  []YearDayRule     `json:"year_days,omitempty"`
}

// RecurrenceConfig describes the repeating pattern of one base event.
// A nil EndDate means a perpetual series.
// swagger:model RecurrenceConfig
type RecurrenceConfig struct {
	ID        string         `json:"id"`
	EventID   string         `json:"event_id"`
	Type      RecurrenceType `json:"recurrence_type"`
	Schedule  Schedule       `json:"schedule"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Validate checks that the schedule is non-empty, carries only the rule kind
// its recurrence type allows, and that every rule is in range. Returns an
// error matching ErrInvalidInput otherwise.
func (c *RecurrenceConfig) Validate() error {
	switch c.Type {
	case RecurrenceDaily, RecurrenceWeekly:
		if len(c.Schedule.Weekdays) == 0 {
			return fmt.Errorf("%w: schedule must have at least one weekday rule", ErrInvalidInput)
		}
		if len(c.Schedule.MonthDays) > 0 || len(c.Schedule.YearDays) > 0 {
			return fmt.Errorf("%w: %s schedule accepts only weekday rules", ErrInvalidInput, c.Type)
		}
		for _, r := range c.Schedule.Weekdays {
			if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
				return fmt.Errorf("%w: weekday %d out of range 0-6", ErrInvalidInput, r.Weekday)
			}
			if r.At.Hour < 0 || r.At.Hour > 23 || r.At.Minute < 0 || r.At.Minute > 59 {
				return fmt.Errorf("%w: time of day %02d:%02d out of range", ErrInvalidInput, r.At.Hour, r.At.Minute)
			}
		}
	case RecurrenceMonthly:
		if len(c.Schedule.MonthDays) == 0 {
			return fmt.Errorf("%w: schedule must have at least one day-of-month rule", ErrInvalidInput)
		}
		if len(c.Schedule.Weekdays) > 0 || len(c.Schedule.YearDays) > 0 {
			return fmt.Errorf("%w: monthly schedule accepts only day-of-month rules", ErrInvalidInput)
		}
		for _, r := range c.Schedule.MonthDays {
			if r.Day < 1 || r.Day > 31 {
				return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidInput, r.Day)
			}
		}
	case RecurrenceYearly:
		if len(c.Schedule.YearDays) == 0 {
			return fmt.Errorf("%w: schedule must have at least one month-and-day rule", ErrInvalidInput)
		}
		if len(c.Schedule.Weekdays) > 0 || len(c.Schedule.MonthDays) > 0 {
			return fmt.Errorf("%w: yearly schedule accepts only month-and-day rules", ErrInvalidInput)
		}
		for _, r := range c.Schedule.YearDays {
			if r.Month < time.January || r.Month > time.December {
				return fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidInput, r.Month)
			}
			if r.Day < 1 || r.Day > 31 {
				return fmt.Errorf("%w: day of month %d out of range 1-31", ErrInvalidInput, r.Day)
			}
		}
	default:
		return fmt.Errorf("%w: unknown recurrence type %q", ErrInvalidInput, c.Type)
	}
	return nil
}

// RecurrenceConfigRepository defines storage for recurrence configs. Creation
// happens inside EventRepository.CreateWithSeries; a duplicate config for a
// base event surfaces as ErrConflict there.
type RecurrenceConfigRepository interface {
	GetByID(ctx context.Context, id string) (*RecurrenceConfig, error)
	GetByEventID(ctx context.Context, eventID string) (*RecurrenceConfig, error)
	UpdateSchedule(ctx context.Context, id string, schedule Schedule, endDate *time.Time) (*RecurrenceConfig, error)
}
