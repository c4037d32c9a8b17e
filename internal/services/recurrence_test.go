package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"calport/internal/domain"
)

func baseEvent(start time.Time) *domain.Event {
	return &domain.Event{
		ID:          "base-1",
		Name:        "Standup",
		Description: "Daily sync",
		StartTime:   start,
		Kind:        domain.EventKindRecurringBase,
		OwnerID:     "user-1",
		CreatedAt:   start,
		UpdatedAt:   start,
	}
}

func weeklyConfig(end *time.Time, rules ...domain.WeekdayTimeRule) *domain.RecurrenceConfig {
	return &domain.RecurrenceConfig{
		ID:       "cfg-1",
		EventID:  "base-1",
		Type:     domain.RecurrenceWeekly,
		Schedule: domain.Schedule{Weekdays: rules},
		EndDate:  end,
	}
}

func TestExpandSeries_Weekly(t *testing.T) {
	// Monday June 2, 2025 through Sunday June 15, 2025: two full weeks.
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	config := weeklyConfig(&end,
		domain.WeekdayTimeRule{Weekday: time.Monday, At: domain.TimeOfDay{Hour: 9, Minute: 0}},
		domain.WeekdayTimeRule{Weekday: time.Wednesday, At: domain.TimeOfDay{Hour: 14, Minute: 30}},
	)
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	require.Len(t, instances, 4, "two rules over two weeks")

	assert.Equal(t, time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC), instances[0].StartTime)
	assert.Equal(t, time.Date(2025, 6, 4, 14, 30, 0, 0, time.UTC), instances[1].StartTime)
	assert.Equal(t, time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC), instances[2].StartTime)
	assert.Equal(t, time.Date(2025, 6, 11, 14, 30, 0, 0, time.UTC), instances[3].StartTime)

	for _, inst := range instances {
		assert.Equal(t, domain.EventKindRecurringInstance, inst.Kind)
		require.NotNil(t, inst.SeriesID)
		assert.Equal(t, "cfg-1", *inst.SeriesID)
		assert.Equal(t, "Standup", inst.Name)
		assert.Equal(t, "user-1", inst.OwnerID)
		assert.NotEmpty(t, inst.ID)
		assert.NotEqual(t, "base-1", inst.ID)
	}
}

func TestExpandSeries_EndDateInclusive(t *testing.T) {
	// End date falls on a matching Friday; that occurrence must be emitted.
	start := time.Date(2025, 6, 6, 8, 0, 0, 0, time.UTC) // Friday
	end := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)  // next Friday

	config := weeklyConfig(&end,
		domain.WeekdayTimeRule{Weekday: time.Friday, At: domain.TimeOfDay{Hour: 8, Minute: 0}},
	)
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	require.Len(t, instances, 2)
	assert.Equal(t, time.Date(2025, 6, 13, 8, 0, 0, 0, time.UTC), instances[1].StartTime)
}

func TestExpandSeries_EndBeforeStart(t *testing.T) {
	start := time.Date(2025, 6, 6, 8, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	config := weeklyConfig(&end,
		domain.WeekdayTimeRule{Weekday: time.Friday, At: domain.TimeOfDay{Hour: 8, Minute: 0}},
	)
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	assert.Empty(t, instances, "a window with no days produces a series with zero instances")
}

func TestExpandSeries_Monthly(t *testing.T) {
	start := time.Date(2025, 1, 10, 16, 45, 0, 0, time.UTC)
	end := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)

	config := &domain.RecurrenceConfig{
		ID:       "cfg-1",
		EventID:  "base-1",
		Type:     domain.RecurrenceMonthly,
		Schedule: domain.Schedule{MonthDays: []domain.MonthDayRule{{Day: 15}}},
		EndDate:  &end,
	}
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	require.Len(t, instances, 4, "Jan through Apr")
	for i, inst := range instances {
		assert.Equal(t, 15, inst.StartTime.Day())
		assert.Equal(t, time.Month(i+1), inst.StartTime.Month())
		// Whole-day occurrences start at midnight regardless of the base's
		// start time.
		assert.Equal(t, 0, inst.StartTime.Hour())
		assert.Equal(t, 0, inst.StartTime.Minute())
	}
}

func TestExpandSeries_MonthlyDay31SkipsShortMonths(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)

	config := &domain.RecurrenceConfig{
		ID:       "cfg-1",
		EventID:  "base-1",
		Type:     domain.RecurrenceMonthly,
		Schedule: domain.Schedule{MonthDays: []domain.MonthDayRule{{Day: 31}}},
		EndDate:  &end,
	}
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	require.Len(t, instances, 2, "only January and March have a 31st")
	assert.Equal(t, time.January, instances[0].StartTime.Month())
	assert.Equal(t, time.March, instances[1].StartTime.Month())
}

func TestExpandSeries_Yearly(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	config := &domain.RecurrenceConfig{
		ID:       "cfg-1",
		EventID:  "base-1",
		Type:     domain.RecurrenceYearly,
		Schedule: domain.Schedule{YearDays: []domain.YearDayRule{{Month: time.July, Day: 4}}},
		EndDate:  &end,
	}
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	require.Len(t, instances, 3)
	for i, inst := range instances {
		assert.Equal(t, 2024+i, inst.StartTime.Year())
		assert.Equal(t, time.July, inst.StartTime.Month())
		assert.Equal(t, 4, inst.StartTime.Day())
	}
}

func TestExpandSeries_OpenEndedHorizon(t *testing.T) {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) // Monday

	config := weeklyConfig(nil,
		domain.WeekdayTimeRule{Weekday: time.Monday, At: domain.TimeOfDay{Hour: 9, Minute: 0}},
	)
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	// 366 days of Mondays starting on one: 53 occurrences.
	require.Len(t, instances, 53)
	last := instances[len(instances)-1].StartTime
	assert.True(t, last.Sub(start) <= openEndedHorizon, "no instance beyond the rolling horizon")
}

func TestExpandSeries_InstanceCap(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(10, 0, 0)

	// Every day of the week, ten years out: well past the cap.
	rules := make([]domain.WeekdayTimeRule, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		rules = append(rules, domain.WeekdayTimeRule{Weekday: d, At: domain.TimeOfDay{Hour: 12, Minute: 0}})
	}
	config := &domain.RecurrenceConfig{
		ID:       "cfg-1",
		EventID:  "base-1",
		Type:     domain.RecurrenceDaily,
		Schedule: domain.Schedule{Weekdays: rules},
		EndDate:  &end,
	}
	instances, err := ExpandSeries(baseEvent(start), config)
	require.NoError(t, err)
	assert.Len(t, instances, maxInstancesPerSeries)
}

func TestExpandSeries_InvalidSchedule(t *testing.T) {
	start := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		config *domain.RecurrenceConfig
	}{
		{
			name: "empty schedule",
			config: &domain.RecurrenceConfig{
				ID: "cfg-1", EventID: "base-1", Type: domain.RecurrenceWeekly,
			},
		},
		{
			name: "weekday rule on monthly type",
			config: &domain.RecurrenceConfig{
				ID: "cfg-1", EventID: "base-1", Type: domain.RecurrenceMonthly,
				Schedule: domain.Schedule{
					MonthDays: []domain.MonthDayRule{{Day: 1}},
					Weekdays:  []domain.WeekdayTimeRule{{Weekday: time.Monday}},
				},
			},
		},
		{
			name: "day of month out of range",
			config: &domain.RecurrenceConfig{
				ID: "cfg-1", EventID: "base-1", Type: domain.RecurrenceMonthly,
				Schedule: domain.Schedule{MonthDays: []domain.MonthDayRule{{Day: 32}}},
			},
		},
		{
			name: "hour out of range",
			config: &domain.RecurrenceConfig{
				ID: "cfg-1", EventID: "base-1", Type: domain.RecurrenceDaily,
				Schedule: domain.Schedule{Weekdays: []domain.WeekdayTimeRule{
					{Weekday: time.Monday, At: domain.TimeOfDay{Hour: 24, Minute: 0}},
				}},
			},
		},
		{
			name: "unknown type",
			config: &domain.RecurrenceConfig{
				ID: "cfg-1", EventID: "base-1", Type: "fortnightly",
				Schedule: domain.Schedule{Weekdays: []domain.WeekdayTimeRule{{Weekday: time.Monday}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instances, err := ExpandSeries(baseEvent(start), tt.config)
			require.Error(t, err)
			require.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Nil(t, instances)
		})
	}
}

func TestDateIterator(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)

	it := newDateIterator(start, end)
	var days []time.Time
	for {
		d, ok := it.Next()
		if !ok {
			break
		}
		days = append(days, d)
	}
	require.Len(t, days, 3)
	assert.Equal(t, start, days[0])
	assert.Equal(t, end, days[2])

	it.Reset()
	d, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, start, d)
}
