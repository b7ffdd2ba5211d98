package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/3leaps/gofutures/internal/errors"
	"github.com/3leaps/gofutures/pkg/calendar"
	"github.com/3leaps/gofutures/pkg/output"
)

// SymbolInfo describes one supported asset.
type SymbolInfo struct {
	Symbol string   `json:"symbol"`
	Class  string   `json:"class"`
	Months []string `json:"months"`
}

// SymbolsResponse is the body of GET /v1/symbols.
type SymbolsResponse struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// ContractsResponse is the body of GET /v1/contracts.
type ContractsResponse struct {
	Count     int                      `json:"count"`
	Contracts []*output.ContractRecord `json:"contracts"`
}

// SymbolsHandler lists the supported assets.
func SymbolsHandler(w http.ResponseWriter, r *http.Request) {
	resp := SymbolsResponse{Symbols: []SymbolInfo{}}
	for _, s := range calendar.Symbols() {
		rule, err := calendar.Lookup(s)
		if err != nil {
			continue
		}
		months := make([]string, len(rule.Months))
		for i, m := range rule.Months {
			months[i] = calendar.MonthCode(m)
		}
		resp.Symbols = append(resp.Symbols, SymbolInfo{Symbol: s, Class: string(rule.Class), Months: months})
	}
	writeJSON(w, resp)
}

// ContractsHandler generates contract periods.
//
// Query parameters: symbols (comma separated, glob patterns allowed), start
// and end (YYYY-MM-DD, inclusive), selection (expiry | contract-month) and
// year_digits (1 | 2).
func ContractsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var patterns []string
	for _, v := range q["symbols"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				patterns = append(patterns, s)
			}
		}
	}
	if len(patterns) == 0 {
		respondWithError(w, r, apperrors.BadRequest("symbols is required"))
		return
	}

	start, err := queryDate(q.Get("start"), "start")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	end, err := queryDate(q.Get("end"), "end")
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	sel, ok := calendar.ParseSelection(q.Get("selection"))
	if !ok {
		respondWithError(w, r, apperrors.BadRequest(fmt.Sprintf("selection: unknown mode %q", q.Get("selection"))))
		return
	}

	digits := 1
	if raw := q.Get("year_digits"); raw != "" {
		digits, err = strconv.Atoi(raw)
		if err != nil || digits < 1 || digits > 2 {
			respondWithError(w, r, apperrors.BadRequest("year_digits: must be 1 or 2"))
			return
		}
	}

	symbols, err := calendar.ExpandSymbols(patterns)
	if err != nil {
		respondWithError(w, r, calendarError(err))
		return
	}
	periods, err := calendar.GenerateContractPeriods(symbols, start, end,
		calendar.WithSelection(sel), calendar.WithYearDigits(digits))
	if err != nil {
		respondWithError(w, r, calendarError(err))
		return
	}

	resp := ContractsResponse{Count: len(periods), Contracts: make([]*output.ContractRecord, len(periods))}
	for i, p := range periods {
		resp.Contracts[i] = output.NewContractRecord(p)
	}
	writeJSON(w, resp)
}

func queryDate(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apperrors.BadRequest(field + " is required")
	}
	t, err := calendar.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperrors.BadRequest(fmt.Sprintf("%s: expected YYYY-MM-DD, got %q", field, raw)).WithCause(err)
	}
	return t, nil
}

func calendarError(err error) error {
	var ua *calendar.UnsupportedAssetError
	if errors.As(err, &ua) {
		return apperrors.New(http.StatusBadRequest, apperrors.CodeUnsupportedAsset, err.Error()).
			WithDetails(map[string]any{"symbol": ua.Symbol}).
			WithCause(err)
	}
	return apperrors.BadRequest(err.Error()).WithCause(err)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
