package http

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"tally/internal/core"
)

// transactionRequest is the POST/PUT body for transactions. Amount is a
// json.Number so clients may send either a number or a quoted decimal
// string (comma separators included); either way positivity is enforced
// here, at the boundary, before anything reaches the ledger.
type transactionRequest struct {
	Amount     json.Number `json:"amount"`
	Type       string      `json:"type"`
	CategoryID string      `json:"categoryId"`
	Date       string      `json:"date"`
	Note       string      `json:"note"`
}

type categoryRequest struct {
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

const maxBodyBytes = 1 << 16 // 64KB

func decodeBody(r io.Reader, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// parseTransaction validates the request and returns the fields the ledger
// needs. Dates accept RFC 3339 or the date-only layout.
func (req *transactionRequest) parse() (amount float64, typ core.TransactionType, categoryID string, date time.Time, note string, err error) {
	amount, err = core.ParseAmount(req.Amount.String())
	if err != nil {
		return 0, "", "", time.Time{}, "", fmt.Errorf("amount: %w", err)
	}

	typ = core.TransactionType(strings.TrimSpace(req.Type))
	if err = typ.Validate(); err != nil {
		return 0, "", "", time.Time{}, "", fmt.Errorf("type %q: %w", req.Type, err)
	}

	categoryID = strings.TrimSpace(req.CategoryID)
	if categoryID == "" {
		return 0, "", "", time.Time{}, "", core.ErrEmptyCategory
	}

	date, err = parseDateField(req.Date)
	if err != nil {
		return 0, "", "", time.Time{}, "", err
	}

	return amount, typ, categoryID, date, strings.TrimSpace(req.Note), nil
}

func (req *categoryRequest) parse() (core.Category, error) {
	c := core.Category{
		Name:  strings.TrimSpace(req.Name),
		Icon:  strings.TrimSpace(req.Icon),
		Color: strings.TrimSpace(req.Color),
		Type:  core.TransactionType(strings.TrimSpace(req.Type)),
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func parseDateField(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, core.ErrInvalidDate
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dateOnly, s, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
