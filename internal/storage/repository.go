// Package storage implements the store ports on SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/store"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists transactions and categories in a local SQLite
// database. Dates and timestamps are stored as RFC 3339 strings.
type SQLiteRepository struct {
	db  *sql.DB
	log *applog.Logger
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:  db,
		log: applog.New(applog.Config{Component: applog.ComponentStorage}),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) GetTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount, type, category_id, date, note, created_at, updated_at
		FROM transactions
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			t                          core.Transaction
			typ                        string
			date, createdAt, updatedAt string
		)
		if err := rows.Scan(&t.ID, &t.Amount, &typ, &t.CategoryID, &date, &t.Note, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		if t.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("parse transaction date: %w", err)
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return transactions, nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount, type, category_id, date, note, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Amount, string(t.Type), t.CategoryID,
		formatTime(t.Date), t.Note, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	r.log.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", t.Type,
		"amount", t.Amount,
		"category_id", t.CategoryID)
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, type = ?, category_id = ?, date = ?, note = ?, updated_at = ?
		WHERE id = ?`,
		t.Amount, string(t.Type), t.CategoryID, formatTime(t.Date), t.Note, formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("transaction %s not found", t.ID)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	r.log.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) GetCategories(ctx context.Context) ([]core.Category, error) {
	categories, err := r.queryCategories(ctx)
	if err != nil {
		return nil, err
	}
	if len(categories) > 0 {
		return categories, nil
	}

	// First access: seed the default catalogue.
	seed := store.DefaultCategories()
	if err := r.insertCategories(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed default categories: %w", err)
	}
	r.log.InfoContext(ctx, "Seeded default categories", "count", len(seed))
	return seed, nil
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, c core.Category) error {
	if err := r.insertCategories(ctx, []core.Category{c}); err != nil {
		return err
	}
	r.log.InfoContext(ctx, "Category saved", "id", c.ID, "name", c.Name, "type", c.Type)
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE categories SET name = ?, icon = ?, color = ?, type = ? WHERE id = ?`,
		c.Name, c.Icon, c.Color, string(c.Type), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %s not found", c.ID)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ResetAllData(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	for _, c := range store.DefaultCategories() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (id, name, icon, color, type) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Icon, c.Color, string(c.Type)); err != nil {
			return fmt.Errorf("re-seed category %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	r.log.InfoContext(ctx, "All data reset, default categories re-seeded")
	return nil
}

func (r *SQLiteRepository) queryCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, icon, color, type FROM categories ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]core.Category, 0)
	for rows.Next() {
		var (
			c   core.Category
			typ string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(typ)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

func (r *SQLiteRepository) insertCategories(ctx context.Context, categories []core.Category) error {
	for _, c := range categories {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO categories (id, name, icon, color, type) VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Icon, c.Color, string(c.Type)); err != nil {
			return fmt.Errorf("insert category %s: %w", c.Name, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
