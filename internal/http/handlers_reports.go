package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"tally/internal/core"
)

// categoryReportResponse pairs the per-category totals with their
// chart-ready projection.
type categoryReportResponse struct {
	Totals []core.CategoryTotal `json:"totals"`
	Chart  core.ChartData       `json:"chart"`
}

// handleCategoryReport returns per-category totals for one transaction
// type, optionally restricted to a date range. Responses are cached until
// the next mutation.
func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	typ := core.TransactionType(strings.TrimSpace(r.URL.Query().Get("type")))
	if typ == "" {
		typ = core.Expense
	}
	if err := typ.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := "categories?" + r.URL.RawQuery
	if cached, ok := s.categoryReportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	transactions, ok := s.rangeFiltered(w, r)
	if !ok {
		return
	}

	joined := core.JoinCategories(transactions, s.ledger.Categories())
	totals := core.TotalsByCategory(joined, typ)
	resp := categoryReportResponse{
		Totals: totals,
		Chart:  core.PieChartData(totals),
	}

	s.categoryReportCache.Set(key, resp)
	slog.DebugContext(r.Context(), "Category report computed", "type", typ, "categories", len(totals))
	writeJSON(w, http.StatusOK, resp)
}

// handleMonthlyReport returns the income/expense series for the last N
// calendar months (default 6, capped at 24).
func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	months := core.DefaultComparisonMonths
	if v := strings.TrimSpace(r.URL.Query().Get("months")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 24 {
			writeError(w, http.StatusBadRequest, "months must be between 1 and 24")
			return
		}
		months = n
	}

	key := "monthly?" + strconv.Itoa(months)
	if cached, ok := s.monthlyReportCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	series := core.MonthlyComparison(s.ledger.Transactions(), months, s.now())
	s.monthlyReportCache.Set(key, series)
	writeJSON(w, http.StatusOK, series)
}
