package core

// JoinCategories resolves each transaction's CategoryID against the given
// categories and attaches the match by value. A dangling reference gets the
// UnknownCategory sentinel with the transaction's own type, so the join
// never fails and every output element carries a fully populated category.
// Callers that need to distinguish "uncategorized" from a broken reference
// can check for the sentinel's empty ID.
func JoinCategories(transactions []Transaction, categories []Category) []TransactionWithCategory {
	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	joined := make([]TransactionWithCategory, len(transactions))
	for i, t := range transactions {
		cat, ok := byID[t.CategoryID]
		if !ok {
			cat = UnknownCategory
			cat.Type = t.Type
		}
		joined[i] = TransactionWithCategory{Transaction: t, Category: cat}
	}
	return joined
}
