// Package memory provides a mutex-guarded in-memory Store, used as the
// default data backend and as the test double for the outer layers.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	"tally/internal/store"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	categories   []core.Category
	seeded       bool
}

func New() *Store {
	return &Store{}
}

// NewSeeded returns a store pre-populated with the given collections,
// marked as seeded so defaults are not layered on top.
func NewSeeded(transactions []core.Transaction, categories []core.Category) *Store {
	return &Store{
		transactions: append([]core.Transaction(nil), transactions...),
		categories:   append([]core.Category(nil), categories...),
		seeded:       true,
	}
}

func (s *Store) GetTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...), nil
}

func (s *Store) AddTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transactions {
		if s.transactions[i].ID == t.ID {
			s.transactions[i] = t
			return nil
		}
	}
	return fmt.Errorf("transaction %s not found", t.ID)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.transactions[:0]
	for _, t := range s.transactions {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.transactions = kept
	return nil
}

func (s *Store) GetCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedLocked()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) AddCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seedLocked()
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.categories {
		if s.categories[i].ID == c.ID {
			s.categories[i] = c
			return nil
		}
	}
	return fmt.Errorf("category %s not found", c.ID)
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.categories[:0]
	for _, c := range s.categories {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.categories = kept
	return nil
}

func (s *Store) ResetAllData(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	s.categories = store.DefaultCategories()
	s.seeded = true
	return nil
}

func (s *Store) seedLocked() {
	if s.seeded {
		return
	}
	s.categories = store.DefaultCategories()
	s.seeded = true
}
