// Package services orchestrates the core packages over storage and the
// notification backend: transaction CRUD, schedule management and the
// recurring-schedule processor.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finbook/internal/core"
	"finbook/internal/notify"

	"github.com/google/uuid"
)

// TransactionStore is the persistence surface the transaction service needs.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) error
	SoftDeleteTransaction(ctx context.Context, id uuid.UUID) error
	GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	ListTransactions(ctx context.Context, owners []uuid.UUID, year int) ([]core.Transaction, error)
}

// TransactionService persists transactions and publishes change events.
// Notification failures are logged, never surfaced: the local write is the
// source of truth.
type TransactionService struct {
	store    TransactionStore
	notifier notify.Notifier
}

func NewTransactionService(store TransactionStore, notifier notify.Notifier) *TransactionService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &TransactionService{store: store, notifier: notifier}
}

// Create validates and saves a transaction, then emits a created event.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.ID = uuid.New()
	tx.CreatedAt = time.Now()
	tx.Deleted = false
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.InsertTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	s.publish(ctx, notify.KindTransactionCreated, map[string]any{
		"transaction_id": tx.ID,
		"type":           tx.Type,
		"amount":         tx.Amount.String(),
		"category":       tx.Category,
	})

	return tx, nil
}

// Delete soft-deletes a transaction; the row is kept for history.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.SoftDeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}

	s.publish(ctx, notify.KindTransactionDeleted, map[string]any{
		"transaction_id": id,
	})

	return nil
}

// List returns the live and deleted transactions for an owner set and year.
func (s *TransactionService) List(ctx context.Context, owners []uuid.UUID, year int) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, owners, year)
}

func (s *TransactionService) publish(ctx context.Context, kind string, payload map[string]any) {
	event, err := notify.NewEvent(kind, payload)
	if err == nil {
		err = s.notifier.Notify(ctx, event)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"kind", kind,
			"error", err)
	}
}
