package services

import (
	"context"
	"fmt"
	"time"

	"finbook/internal/core"
	"finbook/internal/schedule"

	"github.com/google/uuid"
)

// ScheduleStore is the persistence surface for recurring schedules.
// UpdateSchedule must return core.ErrVersionConflict on a stale version.
type ScheduleStore interface {
	InsertSchedule(ctx context.Context, s core.RecurringSchedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (core.RecurringSchedule, error)
	UpdateSchedule(ctx context.Context, s core.RecurringSchedule, expectedVersion int64) error
	ListSchedules(ctx context.Context, owners []uuid.UUID) ([]core.RecurringSchedule, error)
	ListDueSchedules(ctx context.Context, asOf core.Date) ([]core.RecurringSchedule, error)
}

// ScheduleService manages recurring schedule lifecycle.
type ScheduleService struct {
	store ScheduleStore
}

func NewScheduleService(store ScheduleStore) *ScheduleService {
	return &ScheduleService{store: store}
}

// Create validates the schedule, computes its first execution date and
// persists it. A schedule whose first occurrence already falls past the end
// date is stored expired.
func (s *ScheduleService) Create(ctx context.Context, sc core.RecurringSchedule) (core.RecurringSchedule, error) {
	sc.ID = uuid.New()
	sc.Active = true
	sc.Version = 1
	sc.CreatedAt = time.Now()
	if err := sc.Validate(); err != nil {
		return core.RecurringSchedule{}, err
	}

	sc, err := schedule.First(sc)
	if err != nil {
		return core.RecurringSchedule{}, err
	}

	if err := s.store.InsertSchedule(ctx, sc); err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("insert schedule: %w", err)
	}
	return sc, nil
}

// Get returns one schedule.
func (s *ScheduleService) Get(ctx context.Context, id uuid.UUID) (core.RecurringSchedule, error) {
	return s.store.GetSchedule(ctx, id)
}

// List returns every schedule visible to the owner set.
func (s *ScheduleService) List(ctx context.Context, owners []uuid.UUID) ([]core.RecurringSchedule, error) {
	return s.store.ListSchedules(ctx, owners)
}

// Deactivate stops a schedule without deleting it.
func (s *ScheduleService) Deactivate(ctx context.Context, id uuid.UUID) error {
	sc, err := s.store.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	if !sc.Active {
		return nil
	}
	expected := sc.Version
	sc.Active = false
	sc.Version++
	if err := s.store.UpdateSchedule(ctx, sc, expected); err != nil {
		return fmt.Errorf("deactivate schedule: %w", err)
	}
	return nil
}
