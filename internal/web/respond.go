package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/budget"
	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/identity/magiclink"
	"github.com/vbonduro/drinkbudget/internal/state"
)

type errorResponse struct {
	Error string `json:"error"`
}

type summaryResponse struct {
	budget.Summary
	BalanceSign      string          `json:"balanceSign"`
	BalanceMagnitude decimal.Decimal `json:"balanceMagnitude"`
	PerGuestDisplay  string          `json:"perGuestDisplay"`
}

type budgetResponse struct {
	Status  string           `json:"status"`
	Budget  *domain.Budget   `json:"budget,omitempty"`
	Summary *summaryResponse `json:"summary,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func newBudgetResponse(snap state.Snapshot) budgetResponse {
	resp := budgetResponse{
		Status: snap.Status.String(),
		Budget: snap.Budget,
		Error:  state.UserMessage(snap.Err),
	}
	if snap.Budget != nil {
		resp.Summary = newSummaryResponse(budget.Summarize(snap.Budget))
	}
	return resp
}

func newSummaryResponse(sum budget.Summary) *summaryResponse {
	return &summaryResponse{
		Summary:          sum,
		BalanceSign:      sum.Balance.Sign(),
		BalanceMagnitude: sum.Balance.Magnitude(),
		PerGuestDisplay:  sum.PerGuestDisplay(),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps err onto an HTTP status and a user-facing message.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, errorResponse{Error: message(err)})
}

func message(err error) string {
	switch {
	case errors.Is(err, magiclink.ErrInvalidAddress):
		return "Please enter a valid email address."
	case errors.Is(err, magiclink.ErrInvalidToken):
		return "The login link is invalid or has expired."
	default:
		return state.UserMessage(err)
	}
}

func statusFor(err error) int {
	var fieldErr *domain.FieldError
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &fieldErr), errors.Is(err, magiclink.ErrInvalidAddress):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, state.ErrNotReady), errors.Is(err, state.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a size-limited JSON body into dst. Decoding failures
// come back as field errors so they map to 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.FieldError{Kind: domain.ErrInvalidItem, Detail: fmt.Sprintf("malformed request body (%v)", err)}
	}
	return nil
}
