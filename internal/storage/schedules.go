package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finbook/internal/core"

	"github.com/google/uuid"
)

const scheduleColumns = `id, user_id, kind, frequency, start_date, end_date,
	next_execution, active, description, amount_cents, type, category,
	account_id, version, created_at`

func (r *SQLiteRepository) InsertSchedule(ctx context.Context, s core.RecurringSchedule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_schedules (`+scheduleColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.UserID.String(), string(s.Kind), string(s.Frequency),
		formatDate(s.StartDate), nullDate(s.EndDate), nullDate(s.NextExecution),
		s.Active, s.Description, s.Amount.Cents, string(s.Type), s.Category,
		nullUUID(s.AccountID), s.Version, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, id uuid.UUID) (core.RecurringSchedule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules WHERE id = ?`,
		id.String())
	s, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringSchedule{}, fmt.Errorf("schedule %s: %w", id, core.ErrNotFound)
	}
	return s, err
}

func (r *SQLiteRepository) UpdateSchedule(ctx context.Context, s core.RecurringSchedule, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_schedules SET next_execution = ?, active = ?,
			description = ?, amount_cents = ?, version = ?
		 WHERE id = ? AND version = ?`,
		nullDate(s.NextExecution), s.Active, s.Description, s.Amount.Cents,
		s.Version, s.ID.String(), expectedVersion)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	return r.checkVersionedWrite(ctx, res, "recurring_schedules", s.ID)
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, owners []uuid.UUID) ([]core.RecurringSchedule, error) {
	filter, args := ownerFilter(owners)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules
		 WHERE user_id IN `+filter+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

// ListDueSchedules returns active schedules whose next execution is on or
// before asOf. Expired schedules have a NULL next_execution and never match.
func (r *SQLiteRepository) ListDueSchedules(ctx context.Context, asOf core.Date) ([]core.RecurringSchedule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+scheduleColumns+` FROM recurring_schedules
		 WHERE active = 1 AND next_execution IS NOT NULL AND next_execution <= ?
		 ORDER BY next_execution`, formatDate(asOf))
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func collectSchedules(rows *sql.Rows) ([]core.RecurringSchedule, error) {
	var schedules []core.RecurringSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}
	return schedules, rows.Err()
}

func scanSchedule(row rowScanner) (core.RecurringSchedule, error) {
	var s core.RecurringSchedule
	var id, user, kind, freq, typ, startDate string
	var endDate, nextExecution, account sql.NullString
	err := row.Scan(&id, &user, &kind, &freq, &startDate, &endDate,
		&nextExecution, &s.Active, &s.Description, &s.Amount.Cents, &typ,
		&s.Category, &account, &s.Version, &s.CreatedAt)
	if err != nil {
		return core.RecurringSchedule{}, err
	}
	s.Kind = core.ScheduleKind(kind)
	s.Frequency = core.Frequency(freq)
	s.Type = core.TransactionType(typ)
	if s.ID, err = uuid.Parse(id); err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("parse schedule id: %w", err)
	}
	if s.UserID, err = uuid.Parse(user); err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("parse schedule user id: %w", err)
	}
	if s.AccountID, err = uuidFromNull(account); err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("parse schedule account id: %w", err)
	}
	if s.StartDate, err = parseDate(startDate); err != nil {
		return core.RecurringSchedule{}, err
	}
	if s.EndDate, err = dateFromNull(endDate); err != nil {
		return core.RecurringSchedule{}, err
	}
	if s.NextExecution, err = dateFromNull(nextExecution); err != nil {
		return core.RecurringSchedule{}, err
	}
	return s, nil
}
