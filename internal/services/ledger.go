// Package services orchestrates the canonical in-memory collections over
// the persistence ports.
package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tally/internal/core"
	"tally/internal/store"
)

// User-facing failure messages surfaced through the error slot.
const (
	msgLoadFailed   = "Failed to load data. Please try again."
	msgAddFailed    = "Failed to add transaction. Please try again."
	msgUpdateFailed = "Failed to update transaction. Please try again."
	msgDeleteFailed = "Failed to delete transaction. Please try again."
	msgCatFailed    = "Failed to add category. Please try again."
	msgResetFailed  = "Failed to reset data. Please try again."
)

// EventPublisher announces successful mutations. Publishing is best-effort:
// failures are logged and never affect the mutation result.
type EventPublisher interface {
	PublishTransactionCreated(ctx context.Context, t core.Transaction) error
	PublishTransactionUpdated(ctx context.Context, t core.Transaction) error
	PublishTransactionDeleted(ctx context.Context, id string) error
}

// Ledger owns the canonical transaction and category collections. All
// mutations persist first and touch memory only on success, so the
// in-memory view never runs ahead of the store. The single mutex serializes
// concurrent mutations; without it their ordering would be undefined.
type Ledger struct {
	mu      sync.Mutex
	store   store.Store
	events  EventPublisher
	now     func() time.Time
	newID   func() string
	lastErr string

	transactions []core.Transaction
	categories   []core.Category
}

func NewLedger(st store.Store, events EventPublisher) *Ledger {
	return &Ledger{
		store:  st,
		events: events,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Load fetches both collections concurrently and replaces the in-memory
// state. A failed read degrades to an empty collection and sets the error
// slot instead of propagating.
func (l *Ledger) Load(ctx context.Context) {
	var (
		transactions []core.Transaction
		categories   []core.Category
		txErr, catErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		transactions, txErr = l.store.GetTransactions(gctx)
		return nil
	})
	g.Go(func() error {
		categories, catErr = l.store.GetCategories(gctx)
		return nil
	})
	_ = g.Wait()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastErr = ""
	if txErr != nil {
		slog.ErrorContext(ctx, "Failed to load transactions", "error", txErr)
		l.lastErr = msgLoadFailed
		transactions = nil
	}
	if catErr != nil {
		slog.ErrorContext(ctx, "Failed to load categories", "error", catErr)
		l.lastErr = msgLoadFailed
		categories = nil
	}

	l.transactions = transactions
	l.categories = categories
}

// AddTransaction assigns a fresh id, stamps both timestamps with the call
// time, persists and appends in memory on success. Amount is accepted as
// given; positivity is a boundary concern, not enforced here.
func (l *Ledger) AddTransaction(ctx context.Context, amount float64, typ core.TransactionType, categoryID string, date time.Time, note string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	stamp := l.now()
	t := core.Transaction{
		ID:         l.newID(),
		Amount:     amount,
		Type:       typ,
		CategoryID: categoryID,
		Date:       date,
		Note:       note,
		CreatedAt:  stamp,
		UpdatedAt:  stamp,
	}

	if err := l.store.AddTransaction(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to add transaction", "error", err)
		l.lastErr = msgAddFailed
		return false
	}

	l.transactions = append(l.transactions, t)
	l.publish(ctx, func(p EventPublisher) error { return p.PublishTransactionCreated(ctx, t) })
	return true
}

// UpdateTransaction refreshes UpdatedAt, preserves the original CreatedAt
// and replaces the matching record in place on success. Returns false when
// the id is unknown or persistence fails.
func (l *Ledger) UpdateTransaction(ctx context.Context, t core.Transaction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.transactions {
		if l.transactions[i].ID == t.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		slog.WarnContext(ctx, "Update for unknown transaction", "id", t.ID)
		l.lastErr = msgUpdateFailed
		return false
	}

	t.CreatedAt = l.transactions[idx].CreatedAt
	t.UpdatedAt = l.now()

	if err := l.store.UpdateTransaction(ctx, t); err != nil {
		slog.ErrorContext(ctx, "Failed to update transaction", "id", t.ID, "error", err)
		l.lastErr = msgUpdateFailed
		return false
	}

	l.transactions[idx] = t
	l.publish(ctx, func(p EventPublisher) error { return p.PublishTransactionUpdated(ctx, t) })
	return true
}

// DeleteTransaction persists the removal and then filters the in-memory
// collection by id exclusion.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.DeleteTransaction(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to delete transaction", "id", id, "error", err)
		l.lastErr = msgDeleteFailed
		return false
	}

	kept := make([]core.Transaction, 0, len(l.transactions))
	for _, t := range l.transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	l.transactions = kept
	l.publish(ctx, func(p EventPublisher) error { return p.PublishTransactionDeleted(ctx, id) })
	return true
}

// AddCategory assigns a fresh id and persists. Returns the new id, or an
// empty string when persistence fails.
func (l *Ledger) AddCategory(ctx context.Context, c core.Category) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	c.ID = l.newID()
	if err := l.store.AddCategory(ctx, c); err != nil {
		slog.ErrorContext(ctx, "Failed to add category", "name", c.Name, "error", err)
		l.lastErr = msgCatFailed
		return "", false
	}

	l.categories = append(l.categories, c)
	return c.ID, true
}

// ResetAllData clears both collections and re-loads the re-seeded defaults.
func (l *Ledger) ResetAllData(ctx context.Context) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.ResetAllData(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to reset data", "error", err)
		l.lastErr = msgResetFailed
		return false
	}

	l.transactions = nil
	categories, err := l.store.GetCategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to reload categories after reset", "error", err)
		categories = nil
	}
	l.categories = categories
	l.lastErr = ""
	return true
}

// Transactions returns a copy of the canonical transaction collection in
// insertion order.
func (l *Ledger) Transactions() []core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Transaction(nil), l.transactions...)
}

// Categories returns a copy of the canonical category collection.
func (l *Ledger) Categories() []core.Category {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]core.Category(nil), l.categories...)
}

// WithCategories returns the joined read-time view of the current state.
func (l *Ledger) WithCategories() []core.TransactionWithCategory {
	l.mu.Lock()
	transactions := append([]core.Transaction(nil), l.transactions...)
	categories := append([]core.Category(nil), l.categories...)
	l.mu.Unlock()
	return core.JoinCategories(transactions, categories)
}

// LastError returns the most recent user-facing failure message, empty when
// the last load succeeded and no mutation has failed since.
func (l *Ledger) LastError() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}

func (l *Ledger) publish(ctx context.Context, fn func(EventPublisher) error) {
	if l.events == nil {
		return
	}
	if err := fn(l.events); err != nil {
		slog.WarnContext(ctx, "Failed to publish transaction event", "error", err)
	}
}
