// Package store defines the outbound persistence ports and the default
// category catalogue shared by every implementation.
package store

import (
	"context"

	"tally/internal/core"
)

// Ports for outbound persistence adapters.
type (
	TransactionStore interface {
		// GetTransactions returns every persisted transaction, an empty
		// slice if none exist yet.
		GetTransactions(ctx context.Context) ([]core.Transaction, error)
		AddTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
	}

	CategoryStore interface {
		// GetCategories returns every persisted category, seeding the
		// default catalogue on first access when none exist.
		GetCategories(ctx context.Context) ([]core.Category, error)
		AddCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id string) error
	}

	// Store is the full persistence surface consumed by the ledger.
	Store interface {
		TransactionStore
		CategoryStore

		// ResetAllData clears both collections and re-seeds the default
		// categories.
		ResetAllData(ctx context.Context) error
	}
)
