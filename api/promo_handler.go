// Package api — promo banner endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/seenimoa/coinscope/internal/promo"
)

// CheckoutResponse carries the reference handed back by BeginCheckout.
type CheckoutResponse struct {
	Reference string `json:"reference"`
}

func (s *Server) handleListPromos(w http.ResponseWriter, r *http.Request) {
	items := s.promos.List()
	if r.URL.Query().Get("active") == "true" {
		items = promo.ActiveSet(items, time.Now())
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// handleCurrentPromo reports the rotator state: which banner is on display,
// whether a transition is in flight, and the active count.
func (s *Server) handleCurrentPromo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.rotator.Status()})
}

// handleCreatePromo persists an admin-authored banner. Items created here
// carry the privileged flag of the authoring session.
func (s *Server) handleCreatePromo(w http.ResponseWriter, r *http.Request) {
	var it promo.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it.Privileged = s.capability(r).Privileged

	created, err := s.promos.Add(it)
	if err != nil {
		writePromoError(w, err)
		return
	}

	s.rotator.SetItems(s.promos.List())
	writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: created})
}

func (s *Server) handleUpdatePromo(w http.ResponseWriter, r *http.Request) {
	var it promo.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it.ID = chi.URLParam(r, "id")

	updated, err := s.promos.Update(it)
	if err != nil {
		writePromoError(w, err)
		return
	}

	s.rotator.SetItems(s.promos.List())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: updated})
}

func (s *Server) handleDeletePromo(w http.ResponseWriter, r *http.Request) {
	if err := s.promos.Remove(chi.URLParam(r, "id")); err != nil {
		writePromoError(w, err)
		return
	}

	s.rotator.SetItems(s.promos.List())
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// handlePromoCheckout validates a paid banner and opens a checkout session.
// The banner stays in memory until payment completes.
func (s *Server) handlePromoCheckout(w http.ResponseWriter, r *http.Request) {
	var it promo.Item
	if err := json.NewDecoder(r.Body).Decode(&it); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ref, err := s.promos.BeginCheckout(it)
	if err != nil {
		writePromoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: CheckoutResponse{Reference: ref}})
}

// handlePromoCheckoutComplete confirms payment and persists the banner.
func (s *Server) handlePromoCheckoutComplete(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	item, err := s.promos.CompleteCheckout(ctx, ref)
	if err != nil {
		writeError(w, http.StatusPaymentRequired, err.Error())
		return
	}

	s.rotator.SetItems(s.promos.List())
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: item})
}

// writePromoError maps promo errors onto HTTP statuses.
func writePromoError(w http.ResponseWriter, err error) {
	var verr *promo.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}
	var nf *promo.ErrNotFound
	if errors.As(err, &nf) {
		writeError(w, http.StatusNotFound, nf.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}
