package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finbook/internal/core"
	"finbook/internal/notify"
	"finbook/internal/schedule"
)

// RecurringProcessor fires due schedules: transaction schedules materialize
// a transaction, bill reminders emit a notification event. Each fired
// schedule is advanced with an optimistic version check; a conflicting
// concurrent update skips the schedule until the next tick.
type RecurringProcessor struct {
	store        ScheduleStore
	transactions *TransactionService
	notifier     notify.Notifier
}

func NewRecurringProcessor(store ScheduleStore, transactions *TransactionService, notifier notify.Notifier) *RecurringProcessor {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &RecurringProcessor{
		store:        store,
		transactions: transactions,
		notifier:     notifier,
	}
}

// ProcessDue fires every schedule whose next execution date is on or before
// now, one occurrence per schedule per call. Per-item failures are logged
// and skipped so one broken schedule cannot stall the rest.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.store == nil || p.transactions == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	today := core.DateOf(now)
	due, err := p.store.ListDueSchedules(ctx, today)
	if err != nil {
		return 0, fmt.Errorf("list due schedules: %w", err)
	}

	slog.InfoContext(ctx, "Processing due schedules",
		"total_due", len(due),
		"processing_date", today.Format("2006-01-02"))

	processed := 0
	for _, sc := range due {
		if err := p.fire(ctx, sc); err != nil {
			slog.ErrorContext(ctx, "Failed to fire schedule",
				"schedule_id", sc.ID,
				"description", sc.Description,
				"error", err)
			continue
		}
		processed++
	}

	slog.InfoContext(ctx, "Schedule processing complete",
		"processed", processed,
		"total_due", len(due))

	return processed, nil
}

func (p *RecurringProcessor) fire(ctx context.Context, sc core.RecurringSchedule) error {
	if sc.Expired() || !sc.Active {
		return nil
	}

	// Advance first in memory; only persist after the side effect worked.
	advanced, err := schedule.Advance(sc)
	if err != nil {
		return err
	}

	switch sc.Kind {
	case core.ScheduleTransaction:
		tx := core.Transaction{
			UserID:    sc.UserID,
			Type:      sc.Type,
			Amount:    sc.Amount,
			Category:  sc.Category,
			AccountID: sc.AccountID,
			Date:      sc.NextExecution,
			Note:      sc.Description,
		}
		if _, err := p.transactions.Create(ctx, tx); err != nil {
			return fmt.Errorf("materialize transaction: %w", err)
		}
	case core.ScheduleBillReminder:
		event, err := notify.NewEvent(notify.KindBillDue, map[string]any{
			"schedule_id": sc.ID,
			"description": sc.Description,
			"due_date":    sc.NextExecution.Format("2006-01-02"),
		})
		if err == nil {
			err = p.notifier.Notify(ctx, event)
		}
		if err != nil {
			// Reminder delivery is best-effort; still advance the schedule
			// so a dead broker does not re-fire the same bill forever.
			slog.ErrorContext(ctx, "Failed to publish bill reminder",
				"schedule_id", sc.ID,
				"error", err)
		}
	default:
		return fmt.Errorf("%w: unknown schedule kind %q", core.ErrInvalidInput, sc.Kind)
	}

	expected := sc.Version
	advanced.Version = expected + 1
	err = p.store.UpdateSchedule(ctx, advanced, expected)
	if errors.Is(err, core.ErrVersionConflict) {
		slog.WarnContext(ctx, "Schedule changed concurrently, will retry next tick",
			"schedule_id", sc.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("advance schedule: %w", err)
	}

	slog.InfoContext(ctx, "Schedule fired",
		"schedule_id", sc.ID,
		"kind", sc.Kind,
		"description", sc.Description,
		"next_execution", formatNext(advanced))

	return nil
}

func formatNext(sc core.RecurringSchedule) string {
	if sc.Expired() {
		return "expired"
	}
	return sc.NextExecution.Format("2006-01-02")
}
