package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/store"
	"tally/internal/store/memory"
)

// failingStore rejects every operation, for exercising the degrade paths.
type failingStore struct{}

var errBroken = errors.New("store unavailable")

func (failingStore) GetTransactions(context.Context) ([]core.Transaction, error) {
	return nil, errBroken
}
func (failingStore) AddTransaction(context.Context, core.Transaction) error    { return errBroken }
func (failingStore) UpdateTransaction(context.Context, core.Transaction) error { return errBroken }
func (failingStore) DeleteTransaction(context.Context, string) error           { return errBroken }
func (failingStore) GetCategories(context.Context) ([]core.Category, error) {
	return nil, errBroken
}
func (failingStore) AddCategory(context.Context, core.Category) error    { return errBroken }
func (failingStore) UpdateCategory(context.Context, core.Category) error { return errBroken }
func (failingStore) DeleteCategory(context.Context, string) error        { return errBroken }
func (failingStore) ResetAllData(context.Context) error                  { return errBroken }

var _ store.Store = failingStore{}

func fixedLedger(st store.Store) (*Ledger, *time.Time) {
	l := NewLedger(st, nil)
	stamp := time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)
	l.now = func() time.Time { return stamp }
	seq := 0
	l.newID = func() string {
		seq++
		return fmt.Sprintf("id-%d", seq)
	}
	return l, &stamp
}

func TestLoadAndAdd(t *testing.T) {
	ctx := context.Background()
	l, stamp := fixedLedger(memory.New())
	l.Load(ctx)

	if l.LastError() != "" {
		t.Fatalf("unexpected load error: %q", l.LastError())
	}
	if len(l.Categories()) != 14 {
		t.Fatalf("expected seeded categories, got %d", len(l.Categories()))
	}

	date := time.Date(2024, 3, 14, 18, 0, 0, 0, time.Local)
	if !l.AddTransaction(ctx, 42.5, core.Expense, l.Categories()[5].ID, date, "lunch") {
		t.Fatalf("add should succeed")
	}

	txs := l.Transactions()
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	got := txs[0]
	if got.ID != "id-1" {
		t.Fatalf("expected fresh id, got %q", got.ID)
	}
	if !got.CreatedAt.Equal(*stamp) || !got.UpdatedAt.Equal(*stamp) {
		t.Fatalf("timestamps not set to call time: %+v", got)
	}
	if got.Note != "lunch" || got.Amount != 42.5 {
		t.Fatalf("fields not carried: %+v", got)
	}
}

func TestAddTransactionFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	l, _ := fixedLedger(failingStore{})

	before := len(l.Transactions())
	if l.AddTransaction(ctx, 10, core.Income, "c", time.Now(), "") {
		t.Fatalf("add should fail with a broken store")
	}
	if len(l.Transactions()) != before {
		t.Fatalf("in-memory collection changed on failed add")
	}
	if l.LastError() == "" {
		t.Fatalf("expected a user-facing error message")
	}
}

func TestLoadDegradesToEmpty(t *testing.T) {
	ctx := context.Background()
	l, _ := fixedLedger(failingStore{})
	l.Load(ctx)

	if len(l.Transactions()) != 0 || len(l.Categories()) != 0 {
		t.Fatalf("expected empty collections after failed load")
	}
	if l.LastError() == "" {
		t.Fatalf("expected error slot to be set")
	}
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()
	l, _ := fixedLedger(memory.New())
	l.Load(ctx)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	l.AddTransaction(ctx, 10, core.Expense, "cat", date, "")
	l.AddTransaction(ctx, 20, core.Expense, "cat", date, "")
	created := l.Transactions()[0].CreatedAt

	// Move the clock so UpdatedAt visibly advances.
	later := time.Date(2024, 3, 16, 9, 0, 0, 0, time.Local)
	l.now = func() time.Time { return later }

	updated := l.Transactions()[0]
	updated.Amount = 15
	updated.CreatedAt = time.Time{} // must be restored from the stored record

	if !l.UpdateTransaction(ctx, updated) {
		t.Fatalf("update should succeed")
	}

	txs := l.Transactions()
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txs))
	}
	// Order-preserving replace: updated record stays first.
	if txs[0].ID != "id-1" || txs[0].Amount != 15 {
		t.Fatalf("expected in-place replace, got %+v", txs[0])
	}
	if !txs[0].CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt changed on update")
	}
	if !txs[0].UpdatedAt.Equal(later) {
		t.Fatalf("UpdatedAt not refreshed")
	}

	if l.UpdateTransaction(ctx, core.Transaction{ID: "missing"}) {
		t.Fatalf("updating an unknown id should fail")
	}
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	l, _ := fixedLedger(memory.New())
	l.Load(ctx)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	l.AddTransaction(ctx, 10, core.Expense, "cat", date, "")
	l.AddTransaction(ctx, 20, core.Expense, "cat", date, "")

	if !l.DeleteTransaction(ctx, "id-1") {
		t.Fatalf("delete should succeed")
	}
	txs := l.Transactions()
	if len(txs) != 1 || txs[0].ID != "id-2" {
		t.Fatalf("expected only id-2 to remain, got %+v", txs)
	}
}

func TestAddCategory(t *testing.T) {
	ctx := context.Background()
	l, _ := fixedLedger(memory.New())
	l.Load(ctx)

	before := len(l.Categories())
	id, ok := l.AddCategory(ctx, core.Category{Name: "Pets", Icon: "heart", Color: "#795548", Type: core.Expense})
	if !ok || id == "" {
		t.Fatalf("expected new id, got %q ok=%v", id, ok)
	}
	if len(l.Categories()) != before+1 {
		t.Fatalf("category not appended")
	}

	broken, _ := fixedLedger(failingStore{})
	if id, ok := broken.AddCategory(ctx, core.Category{Name: "X", Type: core.Expense}); ok || id != "" {
		t.Fatalf("expected empty id on failure, got %q", id)
	}
}

func TestWithCategoriesJoinsCurrentState(t *testing.T) {
	ctx := context.Background()
	l, _ := fixedLedger(memory.New())
	l.Load(ctx)

	cats := l.Categories()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)
	l.AddTransaction(ctx, 10, cats[0].Type, cats[0].ID, date, "")
	l.AddTransaction(ctx, 20, core.Expense, "dangling", date, "")

	joined := l.WithCategories()
	if len(joined) != 2 {
		t.Fatalf("expected 2 joined records, got %d", len(joined))
	}
	if joined[0].Category.ID != cats[0].ID {
		t.Fatalf("expected resolved category, got %+v", joined[0].Category)
	}
	if joined[1].Category.Name != "Unknown" || joined[1].Category.ID != "" {
		t.Fatalf("expected sentinel for dangling ref, got %+v", joined[1].Category)
	}
}

func TestResetAllData(t *testing.T) {
	ctx := context.Background()
	l, _ := fixedLedger(memory.New())
	l.Load(ctx)

	l.AddTransaction(ctx, 10, core.Expense, "cat", time.Now(), "")
	if !l.ResetAllData(ctx) {
		t.Fatalf("reset should succeed")
	}
	if len(l.Transactions()) != 0 {
		t.Fatalf("transactions not cleared")
	}
	if len(l.Categories()) != 14 {
		t.Fatalf("defaults not re-seeded, got %d", len(l.Categories()))
	}
}
