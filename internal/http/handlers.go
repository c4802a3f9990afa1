package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tally/internal/core"
)

const handlerTimeout = 7 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBalance returns the balance over all transactions, optionally
// restricted to an inclusive start/end date range.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	transactions, ok := s.rangeFiltered(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, core.CalculateBalance(transactions))
}

func (s *Server) handlePeriods(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, core.DatePeriods(s.now()))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, ok := s.rangeFiltered(w, r)
	if !ok {
		return
	}
	joined := core.JoinCategories(transactions, s.ledger.Categories())
	writeJSON(w, http.StatusOK, map[string]any{"transactions": joined})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req transactionRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, typ, categoryID, date, note, err := req.parse()
	if err != nil {
		slog.WarnContext(ctx, "Rejected transaction request", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !s.ledger.AddTransaction(ctx, amount, typ, categoryID, date, note) {
		writeError(w, http.StatusInternalServerError, s.ledger.LastError())
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req transactionRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, typ, categoryID, date, note, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	t := core.Transaction{
		ID:         r.PathValue("id"),
		Amount:     amount,
		Type:       typ,
		CategoryID: categoryID,
		Date:       date,
		Note:       note,
	}
	if !s.ledger.UpdateTransaction(ctx, t) {
		writeError(w, http.StatusNotFound, s.ledger.LastError())
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if !s.ledger.DeleteTransaction(ctx, r.PathValue("id")) {
		writeError(w, http.StatusInternalServerError, s.ledger.LastError())
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.ledger.Categories()})
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	var req categoryRequest
	if err := decodeBody(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, ok := s.ledger.AddCategory(ctx, c)
	if !ok {
		writeError(w, http.StatusInternalServerError, s.ledger.LastError())
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), handlerTimeout)
	defer cancel()

	if !s.ledger.ResetAllData(ctx) {
		writeError(w, http.StatusInternalServerError, s.ledger.LastError())
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// rangeFiltered returns the ledger's transactions, filtered by the optional
// start/end query parameters. Writes the error response itself on bad input.
func (s *Server) rangeFiltered(w http.ResponseWriter, r *http.Request) ([]core.Transaction, bool) {
	transactions := s.ledger.Transactions()

	start, hasStart, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	end, hasEnd, err := parseDateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	if hasStart != hasEnd {
		writeError(w, http.StatusBadRequest, "start and end must be provided together")
		return nil, false
	}
	if hasStart {
		transactions = core.FilterByDateRange(transactions, start, end)
	}
	return transactions, true
}
