// Package core holds the domain model and the pure aggregation engine.
//
// Every function here is a side-effect-free transform over in-memory
// collections: inputs are never mutated, time-relative computations take an
// explicit "now", and nothing in this package touches storage or transport.
package core

import (
	"sort"
	"time"

	"github.com/jinzhu/now"
)

// CalculateBalance computes the gross income, gross expense and signed net
// total over the given transactions. This is the single source of truth for
// signed balances: income adds to Total, expense subtracts from it.
func CalculateBalance(transactions []Transaction) Balance {
	var b Balance
	for _, t := range transactions {
		if t.Type == Income {
			b.Income += t.Amount
			b.Total += t.Amount
		} else {
			b.Expense += t.Amount
			b.Total -= t.Amount
		}
	}
	return b
}

// FilterByDateRange keeps transactions whose Date falls within the closed
// interval [start of start's day, end of end's day], in local time. Input
// order is preserved. The interval test is inclusive on both ends so a
// transaction dated exactly at a day boundary is never dropped.
func FilterByDateRange(transactions []Transaction, start, end time.Time) []Transaction {
	lo := now.With(start).BeginningOfDay()
	hi := now.With(end).EndOfDay()

	out := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if t.Date.Before(lo) || t.Date.After(hi) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// DatePeriods returns the fixed catalogue of named ranges relative to ref.
// The order is part of the contract: callers select defaults by index
// (3 = Last 30 Days, 4 = Last 3 Months). Rebuilt on every call since the
// reference instant moves.
func DatePeriods(ref time.Time) []Period {
	n := now.With(ref)

	return []Period{
		{Start: n.BeginningOfDay(), End: n.EndOfDay(), Label: "Today"},
		{Start: n.BeginningOfWeek(), End: n.EndOfWeek(), Label: "This Week"},
		{Start: n.BeginningOfMonth(), End: n.EndOfMonth(), Label: "This Month"},
		{Start: now.With(ref.AddDate(0, -1, 0)).BeginningOfDay(), End: n.EndOfDay(), Label: "Last 30 Days"},
		{Start: now.With(ref.AddDate(0, -3, 0)).BeginningOfDay(), End: n.EndOfDay(), Label: "Last 3 Months"},
		{Start: n.BeginningOfYear(), End: n.EndOfYear(), Label: "This Year"},
		{Start: now.With(ref.AddDate(-1, 0, 0)).BeginningOfDay(), End: n.EndOfDay(), Label: "Last 12 Months"},
	}
}

// TotalsByCategory aggregates the joined transactions of the given type into
// per-category totals with their share of the type's overall sum. Category
// name and color travel with the joined transaction; the first occurrence
// wins. The result is sorted descending by amount with a stable sort, so
// equal amounts keep their discovery order.
func TotalsByCategory(transactions []TransactionWithCategory, typ TransactionType) []CategoryTotal {
	var totalAmount float64
	for _, t := range transactions {
		if t.Type == typ {
			totalAmount += t.Amount
		}
	}

	index := make(map[string]int)
	totals := make([]CategoryTotal, 0)
	for _, t := range transactions {
		if t.Type != typ {
			continue
		}
		i, seen := index[t.CategoryID]
		if !seen {
			i = len(totals)
			index[t.CategoryID] = i
			totals = append(totals, CategoryTotal{
				CategoryID:    t.CategoryID,
				CategoryName:  t.Category.Name,
				CategoryColor: t.Category.Color,
			})
		}
		totals[i].Amount += t.Amount
	}

	for i := range totals {
		if totalAmount > 0 {
			totals[i].Percentage = totals[i].Amount / totalAmount * 100
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Amount > totals[j].Amount
	})

	return totals
}

// PieChartData projects category totals into index-aligned label, value and
// color slices, preserving the input order.
func PieChartData(totals []CategoryTotal) ChartData {
	cd := ChartData{
		Labels: make([]string, len(totals)),
		Data:   make([]float64, len(totals)),
		Colors: make([]string, len(totals)),
	}
	for i, ct := range totals {
		cd.Labels[i] = ct.CategoryName
		cd.Data[i] = ct.Amount
		cd.Colors[i] = ct.CategoryColor
	}
	return cd
}

// MonthlySeries carries per-month income and expense totals for a bar chart,
// oldest month first. The three slices are index-aligned.
type MonthlySeries struct {
	Labels  []string  `json:"labels"`
	Income  []float64 `json:"income"`
	Expense []float64 `json:"expense"`
}

// DefaultComparisonMonths is the window used when a caller does not ask for
// a specific number of months.
const DefaultComparisonMonths = 6

// MonthlyComparison computes income and expense totals for each of the last
// `months` calendar months ending at ref's month, in chronological order.
// Labels are three-letter month abbreviations.
func MonthlyComparison(transactions []Transaction, months int, ref time.Time) MonthlySeries {
	if months <= 0 {
		months = DefaultComparisonMonths
	}

	series := MonthlySeries{
		Labels:  make([]string, 0, months),
		Income:  make([]float64, 0, months),
		Expense: make([]float64, 0, months),
	}

	// Anchor on the first of the month so subtracting months can never
	// overflow into a neighbouring month.
	anchor := now.With(ref).BeginningOfMonth()

	for i := months - 1; i >= 0; i-- {
		month := anchor.AddDate(0, -i, 0)
		start := month
		end := now.With(month).EndOfMonth()

		b := CalculateBalance(FilterByDateRange(transactions, start, end))

		series.Labels = append(series.Labels, month.Format("Jan"))
		series.Income = append(series.Income, b.Income)
		series.Expense = append(series.Expense, b.Expense)
	}

	return series
}
