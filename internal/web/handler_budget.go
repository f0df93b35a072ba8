package web

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/numinput"
)

type scalarRequest struct {
	Value numinput.Raw `json:"value"`
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, newBudgetResponse(s.store.Snapshot()))
}

// handleLoadBudget (re)loads from the backend. A failed load still answers
// with the snapshot so the caller sees the failed status next to the error.
func (s *Server) handleLoadBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Load(r.Context()); err != nil {
		status := statusFor(err)
		resp := newBudgetResponse(s.store.Snapshot())
		resp.Error = message(err)
		s.writeJSON(w, status, resp)
		return
	}
	s.writeJSON(w, http.StatusOK, newBudgetResponse(s.store.Snapshot()))
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req scalarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	amount, err := req.Value.Amount()
	if err != nil {
		s.writeError(w, r, &domain.FieldError{Kind: domain.ErrInvalidScalar, Detail: fmt.Sprintf("target budget: %v", err)})
		return
	}
	s.setScalar(w, r, domain.FieldTargetBudget, amount)
}

func (s *Server) handleSetGuests(w http.ResponseWriter, r *http.Request) {
	var req scalarRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	guests, err := req.Value.Quantity()
	if err != nil {
		s.writeError(w, r, &domain.FieldError{Kind: domain.ErrInvalidScalar, Detail: fmt.Sprintf("guest count: %v", err)})
		return
	}
	s.setScalar(w, r, domain.FieldGuestCount, decimal.NewFromInt(int64(guests)))
}

func (s *Server) setScalar(w http.ResponseWriter, r *http.Request, field domain.ScalarField, value decimal.Decimal) {
	if err := s.store.SetScalarField(r.Context(), field, value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newBudgetResponse(s.store.Snapshot()))
}
