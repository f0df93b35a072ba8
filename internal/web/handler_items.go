package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/drinkbudget/internal/budget"
	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/numinput"
	"github.com/vbonduro/drinkbudget/internal/state"
)

type itemRequest struct {
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	Quantity  numinput.Raw `json:"quantity"`
	UnitPrice numinput.Raw `json:"unitPrice"`
	Purchased bool         `json:"purchased"`
	Venue     string       `json:"venue"`
	Notes     string       `json:"notes"`
}

func (req itemRequest) values() (domain.ItemValues, error) {
	quantity, err := req.Quantity.Quantity()
	if err != nil {
		return domain.ItemValues{}, &domain.FieldError{Kind: domain.ErrInvalidItem, Detail: fmt.Sprintf("quantity: %v", err)}
	}
	price := decimal.Zero
	if req.UnitPrice != "" {
		price, err = req.UnitPrice.Amount()
		if err != nil {
			return domain.ItemValues{}, &domain.FieldError{Kind: domain.ErrInvalidItem, Detail: fmt.Sprintf("unitPrice: %v", err)}
		}
	}
	return domain.ItemValues{
		Name:      strings.TrimSpace(req.Name),
		Category:  domain.Category(strings.ToLower(strings.TrimSpace(req.Category))),
		Quantity:  quantity,
		UnitPrice: price,
		Purchased: req.Purchased,
		Venue:     strings.TrimSpace(req.Venue),
		Notes:     req.Notes,
	}, nil
}

type itemListResponse struct {
	Category      string            `json:"category"`
	Items         []domain.LineItem `json:"items"`
	TotalQuantity int               `json:"totalQuantity"`
	TotalSpend    decimal.Decimal   `json:"totalSpend"`
}

// handleListItems lists items, optionally narrowed with ?category=. An
// empty category or "all" lists everything.
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Budget == nil {
		s.writeError(w, r, state.ErrNotReady)
		return
	}

	var category domain.Category
	if raw := r.URL.Query().Get("category"); raw != "" && !strings.EqualFold(raw, "all") {
		c, err := domain.ParseCategory(raw)
		if err != nil {
			s.writeError(w, r, &domain.FieldError{Kind: domain.ErrInvalidItem, Detail: fmt.Sprintf("unknown category %q", raw)})
			return
		}
		category = c
	}

	items := budget.FilterByCategory(snap.Budget.Items, category)
	label := string(category)
	if label == "" {
		label = "all"
	}
	s.writeJSON(w, http.StatusOK, itemListResponse{
		Category:      label,
		Items:         items,
		TotalQuantity: budget.TotalQuantity(items),
		TotalSpend:    budget.TotalSpend(items),
	})
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	values, err := req.values()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.store.AddItem(r.Context(), values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req itemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	values, err := req.values()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.store.UpdateItem(r.Context(), id, values)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
