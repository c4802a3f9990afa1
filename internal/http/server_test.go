package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *services.Ledger) {
	t.Helper()
	ledger := services.NewLedger(memory.New(), nil)
	ledger.Load(t.Context())

	srv := NewServer(":0", ledger, DefaultOptions())
	srv.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)
	}
	return srv, ledger
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestAddAndListTransactions(t *testing.T) {
	srv, ledger := newTestServer(t)
	catID := ledger.Categories()[5].ID

	body := `{"amount": 42.5, "type": "expense", "categoryId": "` + catID + `", "date": "2024-03-14", "note": "lunch"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/transactions", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Transactions []core.TransactionWithCategory `json:"transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(resp.Transactions))
	}
	got := resp.Transactions[0]
	if got.Amount != 42.5 || got.Note != "lunch" {
		t.Fatalf("unexpected transaction: %+v", got)
	}
	if got.Category.ID != catID {
		t.Fatalf("category not joined: %+v", got.Category)
	}
}

func TestAddTransactionStringAmount(t *testing.T) {
	srv, ledger := newTestServer(t)
	catID := ledger.Categories()[0].ID

	body := `{"amount": "12,50", "type": "income", "categoryId": "` + catID + `", "date": "2024-03-01"}`
	rec := doRequest(t, srv, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if ledger.Transactions()[0].Amount != 12.5 {
		t.Fatalf("comma amount not parsed: %+v", ledger.Transactions()[0])
	}
}

func TestAddTransactionRejectsBadInput(t *testing.T) {
	srv, ledger := newTestServer(t)
	catID := ledger.Categories()[0].ID

	cases := []string{
		`{"amount": 0, "type": "expense", "categoryId": "` + catID + `", "date": "2024-03-01"}`,
		`{"amount": -5, "type": "expense", "categoryId": "` + catID + `", "date": "2024-03-01"}`,
		`{"amount": 5, "type": "transfer", "categoryId": "` + catID + `", "date": "2024-03-01"}`,
		`{"amount": 5, "type": "expense", "categoryId": "", "date": "2024-03-01"}`,
		`{"amount": 5, "type": "expense", "categoryId": "` + catID + `", "date": "not-a-date"}`,
		`not json`,
	}
	for i, body := range cases {
		rec := doRequest(t, srv, http.MethodPost, "/api/transactions", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, rec.Code)
		}
	}
	if len(ledger.Transactions()) != 0 {
		t.Fatalf("rejected requests must not reach the ledger")
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	srv, ledger := newTestServer(t)
	catID := ledger.Categories()[5].ID
	ledger.AddTransaction(t.Context(), 10, core.Expense, catID, time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), "")
	id := ledger.Transactions()[0].ID

	body := `{"amount": 20, "type": "expense", "categoryId": "` + catID + `", "date": "2024-03-02"}`
	rec := doRequest(t, srv, http.MethodPut, "/api/transactions/"+id, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ledger.Transactions()[0].Amount != 20 {
		t.Fatalf("update not applied")
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/transactions/unknown", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodDelete, "/api/transactions/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ledger.Transactions()) != 0 {
		t.Fatalf("delete not applied")
	}
}

func TestBalanceEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t)
	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	ledger.AddTransaction(t.Context(), 100, core.Income, "a", day, "")
	ledger.AddTransaction(t.Context(), 40, core.Expense, "b", day, "")
	ledger.AddTransaction(t.Context(), 7, core.Expense, "b", day.AddDate(0, -2, 0), "")

	rec := doRequest(t, srv, http.MethodGet, "/api/balance", "")
	var b core.Balance
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Total != 53 || b.Income != 100 || b.Expense != 47 {
		t.Fatalf("unexpected balance: %+v", b)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/balance?start=2024-03-01&end=2024-03-31", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Total != 60 || b.Income != 100 || b.Expense != 40 {
		t.Fatalf("unexpected filtered balance: %+v", b)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/balance?start=2024-03-01", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for half-open range, got %d", rec.Code)
	}
}

func TestPeriodsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/api/periods", "")

	var periods []core.Period
	if err := json.Unmarshal(rec.Body.Bytes(), &periods); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(periods) != 7 || periods[3].Label != "Last 30 Days" {
		t.Fatalf("unexpected periods: %+v", periods)
	}
}

func TestCategoryReportAndCacheInvalidation(t *testing.T) {
	srv, ledger := newTestServer(t)
	cats := ledger.Categories()
	var food core.Category
	for _, c := range cats {
		if c.Name == "Food" {
			food = c
		}
	}
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.Local)
	ledger.AddTransaction(t.Context(), 30, core.Expense, food.ID, day, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/categories?type=expense", "")
	var resp categoryReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Totals) != 1 || resp.Totals[0].CategoryName != "Food" || resp.Totals[0].Percentage != 100 {
		t.Fatalf("unexpected report: %+v", resp.Totals)
	}
	if len(resp.Chart.Labels) != 1 || resp.Chart.Data[0] != 30 {
		t.Fatalf("chart not aligned: %+v", resp.Chart)
	}

	// A mutation through the API must invalidate the cached report.
	body := `{"amount": 70, "type": "expense", "categoryId": "` + food.ID + `", "date": "2024-03-11"}`
	doRequest(t, srv, http.MethodPost, "/api/transactions", body)

	rec = doRequest(t, srv, http.MethodGet, "/api/reports/categories?type=expense", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Totals) != 1 || resp.Totals[0].Amount != 100 {
		t.Fatalf("stale report served after mutation: %+v", resp.Totals)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/reports/categories?type=transfer", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid type, got %d", rec.Code)
	}
}

func TestMonthlyReport(t *testing.T) {
	srv, ledger := newTestServer(t)
	ledger.AddTransaction(t.Context(), 100, core.Income, "a", time.Date(2024, 2, 10, 0, 0, 0, 0, time.Local), "")
	ledger.AddTransaction(t.Context(), 25, core.Expense, "b", time.Date(2024, 3, 5, 0, 0, 0, 0, time.Local), "")

	rec := doRequest(t, srv, http.MethodGet, "/api/reports/monthly?months=3", "")
	var series core.MonthlySeries
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(series.Labels) != 3 || series.Labels[2] != "Mar" {
		t.Fatalf("unexpected labels: %v", series.Labels)
	}
	if series.Income[1] != 100 || series.Expense[2] != 25 {
		t.Fatalf("unexpected series: %+v", series)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/reports/monthly?months=99", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range months, got %d", rec.Code)
	}
}

func TestAddCategoryEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t)
	before := len(ledger.Categories())

	rec := doRequest(t, srv, http.MethodPost, "/api/categories", `{"name": "Pets", "icon": "heart", "color": "#795548", "type": "expense"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["id"] == "" {
		t.Fatalf("expected new category id")
	}
	if len(ledger.Categories()) != before+1 {
		t.Fatalf("category not added")
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/categories", `{"name": "", "type": "expense"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", rec.Code)
	}
}

func TestResetEndpoint(t *testing.T) {
	srv, ledger := newTestServer(t)
	ledger.AddTransaction(t.Context(), 10, core.Expense, "c", time.Now(), "")

	rec := doRequest(t, srv, http.MethodPost, "/api/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(ledger.Transactions()) != 0 {
		t.Fatalf("transactions not cleared")
	}
	if len(ledger.Categories()) != 14 {
		t.Fatalf("defaults not re-seeded")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2)
	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatalf("first two requests should pass")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatalf("third request within the window should be rejected")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatalf("other clients have their own budget")
	}
}
