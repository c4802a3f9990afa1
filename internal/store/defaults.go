package store

import (
	"github.com/google/uuid"

	"tally/internal/core"
)

// DefaultCategories builds the seed catalogue with fresh ids: 5 income and
// 9 expense categories. Called once per seeding, so ids differ between
// installations but stay stable afterwards.
func DefaultCategories() []core.Category {
	seed := []core.Category{
		{Name: "Salary", Icon: "briefcase", Color: "#4CAF50", Type: core.Income},
		{Name: "Business", Icon: "trending-up", Color: "#2196F3", Type: core.Income},
		{Name: "Investments", Icon: "bar-chart", Color: "#9C27B0", Type: core.Income},
		{Name: "Gifts", Icon: "gift", Color: "#FF9800", Type: core.Income},
		{Name: "Other Income", Icon: "plus-circle", Color: "#607D8B", Type: core.Income},

		{Name: "Food", Icon: "coffee", Color: "#F44336", Type: core.Expense},
		{Name: "Housing", Icon: "home", Color: "#3F51B5", Type: core.Expense},
		{Name: "Transportation", Icon: "car", Color: "#FF5722", Type: core.Expense},
		{Name: "Shopping", Icon: "shopping-bag", Color: "#E91E63", Type: core.Expense},
		{Name: "Entertainment", Icon: "film", Color: "#673AB7", Type: core.Expense},
		{Name: "Health", Icon: "activity", Color: "#00BCD4", Type: core.Expense},
		{Name: "Education", Icon: "book", Color: "#8BC34A", Type: core.Expense},
		{Name: "Bills", Icon: "file-text", Color: "#FFC107", Type: core.Expense},
		{Name: "Other", Icon: "more-horizontal", Color: "#607D8B", Type: core.Expense},
	}

	for i := range seed {
		seed[i].ID = uuid.NewString()
	}
	return seed
}
