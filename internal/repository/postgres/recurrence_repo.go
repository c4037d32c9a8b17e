package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"calport/internal/domain"
)

type recurrenceConfigRepository struct {
	DB *sql.DB
}

func NewRecurrenceConfigRepository(db *sql.DB) domain.RecurrenceConfigRepository {
	return &recurrenceConfigRepository{
		DB: db,
	}
}

func (r *recurrenceConfigRepository) GetByID(ctx context.Context, id string) (*domain.RecurrenceConfig, error) {
	query := `
		SELECT id, event_id, recurrence_type, end_date, created_at, updated_at
		FROM recurrence_configs
		WHERE id = $1
	`
	return r.getConfig(ctx, query, id)
}

func (r *recurrenceConfigRepository) GetByEventID(ctx context.Context, eventID string) (*domain.RecurrenceConfig, error) {
	query := `
		SELECT id, event_id, recurrence_type, end_date, created_at, updated_at
		FROM recurrence_configs
		WHERE event_id = $1
	`
	return r.getConfig(ctx, query, eventID)
}

func (r *recurrenceConfigRepository) getConfig(ctx context.Context, query string, arg string) (*domain.RecurrenceConfig, error) {
	c := &domain.RecurrenceConfig{}
	var endNull sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&c.ID, &c.EventID, &c.Type, &endNull, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if endNull.Valid {
		c.EndDate = &endNull.Time
	}
	if err := r.loadSchedule(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// loadSchedule reads the config's rule rows in position order into the slice
// matching its recurrence type.
func (r *recurrenceConfigRepository) loadSchedule(ctx context.Context, c *domain.RecurrenceConfig) error {
	query := `
		SELECT weekday, hour, minute, month_day, month
		FROM recurrence_rules
		WHERE config_id = $1
		ORDER BY position ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, c.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var weekday, hour, minute, monthDay, month sql.NullInt64
		if err := rows.Scan(&weekday, &hour, &minute, &monthDay, &month); err != nil {
			return err
		}
		switch c.Type {
		case domain.RecurrenceDaily, domain.RecurrenceWeekly:
			c.Schedule.Weekdays = append(c.Schedule.Weekdays, domain.WeekdayTimeRule{
				Weekday: time.Weekday(weekday.Int64),
				At:      domain.TimeOfDay{Hour: int(hour.Int64), Minute: int(minute.Int64)},
			})
		case domain.RecurrenceMonthly:
			c.Schedule.MonthDays = append(c.Schedule.MonthDays, domain.MonthDayRule{Day: int(monthDay.Int64)})
		case domain.RecurrenceYearly:
			c.Schedule.YearDays = append(c.Schedule.YearDays, domain.YearDayRule{
				Month: time.Month(month.Int64),
				Day:   int(monthDay.Int64),
			})
		}
	}
	return rows.Err()
}

func (r *recurrenceConfigRepository) UpdateSchedule(ctx context.Context, id string, schedule domain.Schedule, endDate *time.Time) (*domain.RecurrenceConfig, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE recurrence_configs SET end_date = $2, updated_at = NOW() WHERE id = $1`, id, endDate)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, domain.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM recurrence_rules WHERE config_id = $1`, id); err != nil {
		return nil, err
	}
	if err := insertRules(ctx, tx, &domain.RecurrenceConfig{ID: id, Schedule: schedule}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// insertRules writes the schedule's rule rows. Each variant fills only its
// own columns; the rest stay NULL.
func insertRules(ctx context.Context, tx *sql.Tx, c *domain.RecurrenceConfig) error {
	query := `
		INSERT INTO recurrence_rules (config_id, position, weekday, hour, minute, month_day, month)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	position := 0
	for _, rule := range c.Schedule.Weekdays {
		if _, err := tx.ExecContext(ctx, query, c.ID, position, int(rule.Weekday), rule.At.Hour, rule.At.Minute, nil, nil); err != nil {
			return err
		}
		position++
	}
	for _, rule := range c.Schedule.MonthDays {
		if _, err := tx.ExecContext(ctx, query, c.ID, position, nil, nil, nil, rule.Day, nil); err != nil {
			return err
		}
		position++
	}
	for _, rule := range c.Schedule.YearDays {
		if _, err := tx.ExecContext(ctx, query, c.ID, position, nil, nil, nil, rule.Day, int(rule.Month)); err != nil {
			return err
		}
		position++
	}
	return nil
}
