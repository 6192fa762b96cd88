// Package api — authentication and manual-listing endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/coinscope/internal/auth"
	"github.com/seenimoa/coinscope/internal/listing"
	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/pkg/models"
)

// ============================================================
// Auth
// ============================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := s.gate.Login(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	cap := s.gate.CapabilityFor(token)
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    LoginResponse{Token: token, Privileged: cap.Privileged},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gate.Logout(bearerToken(r))
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// requireAdmin rejects requests whose bearer token lacks the privileged
// capability.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.capability(r).Privileged {
			writeError(w, http.StatusUnauthorized, "admin login required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// capability resolves the request's bearer token to its capability. An
// absent or unknown token yields the zero capability.
func (s *Server) capability(r *http.Request) auth.Capability {
	return s.gate.CapabilityFor(bearerToken(r))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// ============================================================
// Manual projects
// ============================================================

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.projects.List()})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var e listing.Entity
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.projects.Add(e, s.externalCoinCount(r.Context()))
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: created})
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	s.updateManual(w, r, s.projects)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	s.deleteManual(w, r, s.projects)
}

// ============================================================
// Manual exchanges
// ============================================================

func (s *Server) handleListManualExchanges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.exchanges.List()})
}

func (s *Server) handleCreateManualExchange(w http.ResponseWriter, r *http.Request) {
	var e listing.Entity
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Exchange views re-rank by volume; the creation rank only seats the
	// entity before its first merge.
	created, err := s.exchanges.Add(e, s.externalExchangeCount(r.Context()))
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: created})
}

func (s *Server) handleUpdateManualExchange(w http.ResponseWriter, r *http.Request) {
	s.updateManual(w, r, s.exchanges)
}

func (s *Server) handleDeleteManualExchange(w http.ResponseWriter, r *http.Request) {
	s.deleteManual(w, r, s.exchanges)
}

// ============================================================
// Shared manual-collection plumbing
// ============================================================

func (s *Server) updateManual(w http.ResponseWriter, r *http.Request, col *listing.ManualCollection) {
	id := chi.URLParam(r, "id")
	var e listing.Entity
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e.ID = id

	updated, err := col.Update(e)
	if err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: updated})
}

func (s *Server) deleteManual(w http.ResponseWriter, r *http.Request, col *listing.ManualCollection) {
	if err := col.Remove(chi.URLParam(r, "id")); err != nil {
		writeListingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// writeListingError maps collection errors onto HTTP statuses.
func writeListingError(w http.ResponseWriter, err error) {
	var verr *listing.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	var nf *listing.ErrNotFound
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// externalCoinCount returns the size of the current external coin listing,
// used to seat new manual ranks after it. A failed fetch falls back to the
// configured page size.
func (s *Server) externalCoinCount(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := s.registry().Fetch(ctx, provider.ModelCoinList, nil)
	if err == nil {
		if coins, ok := res.Data.([]models.Coin); ok {
			return len(coins)
		}
	}
	return s.cfg.Board.CoinPageSize
}

func (s *Server) externalExchangeCount(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := s.registry().Fetch(ctx, provider.ModelExchangeList, nil)
	if err == nil {
		if exchanges, ok := res.Data.([]models.Exchange); ok {
			return len(exchanges)
		}
	}
	return 0
}
