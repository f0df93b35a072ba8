package web

import (
	"fmt"
	"net/http"

	"github.com/vbonduro/drinkbudget/internal/domain"
	"github.com/vbonduro/drinkbudget/internal/identity"
	"github.com/vbonduro/drinkbudget/internal/identity/magiclink"
)

type loginRequest struct {
	Email string `json:"email"`
}

type verifyResponse struct {
	Identity *identity.Identity `json:"identity"`
	budgetResponse
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, magiclink.ErrInvalidAddress)
		return
	}
	if err := s.auth.SendLoginChallenge(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// handleVerify exchanges the login token for a session and loads that
// identity's budget. A failed load is reported in the body; the sign-in
// itself still succeeded.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		s.writeError(w, r, fmt.Errorf("%w: %w", domain.ErrUnauthorized, magiclink.ErrInvalidToken))
		return
	}

	id, err := s.auth.Verify(r.Context(), token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Drop whatever the previous session had loaded before loading the new one.
	s.store.Reset()
	loadErr := s.store.Load(r.Context())

	resp := verifyResponse{Identity: id, budgetResponse: newBudgetResponse(s.store.Snapshot())}
	if loadErr != nil {
		resp.Error = message(loadErr)
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.store.Reset()
	w.WriteHeader(http.StatusNoContent)
}
