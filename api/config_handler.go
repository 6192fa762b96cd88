// Package api — settings endpoints (credentials, API keys, providers).
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/seenimoa/coinscope/internal/auth"
	"github.com/seenimoa/coinscope/internal/board"
	"github.com/seenimoa/coinscope/internal/config"
	"github.com/seenimoa/coinscope/internal/insight"
	"github.com/seenimoa/coinscope/internal/llm"
	"github.com/seenimoa/coinscope/internal/providers"
	"github.com/seenimoa/coinscope/internal/store"
)

// settingsMu serialises settings writes (key bundle + registry rebuild).
var settingsMu sync.Mutex

// handleUpdateCredentials rotates the admin username/password pair.
func (s *Server) handleUpdateCredentials(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.gate.Rotate(creds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true})
}

// handleGetKeys reports which API keys are set and where each came from.
// Key values are masked; nothing sensitive leaves the server.
func (s *Server) handleGetKeys(w http.ResponseWriter, r *http.Request) {
	var stored config.APIKeys
	s.st.Load(store.KeyAPIKeys, &stored)

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg, stored),
	})
}

// handleUpdateKeys persists the submitted key bundle to the local store and
// rebuilds the provider registry so new keys take effect without a restart.
// Empty fields leave the existing stored value untouched.
func (s *Server) handleUpdateKeys(w http.ResponseWriter, r *http.Request) {
	var incoming config.APIKeys
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settingsMu.Lock()
	defer settingsMu.Unlock()

	var stored config.APIKeys
	s.st.Load(store.KeyAPIKeys, &stored)
	mergeKeys(&stored, incoming)

	if err := s.st.Save(store.KeyAPIKeys, stored); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist keys: "+err.Error())
		return
	}

	stored.Merge(s.cfg)
	if err := s.rebuildProviders(); err != nil {
		writeError(w, http.StatusInternalServerError, "provider rebuild failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg, stored),
	})
}

// handleListProviders returns info about the registered data providers.
func (s *Server) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.registry().List()})
}

// rebuildProviders reconstructs the registry and everything downstream of
// it from the current configuration.
func (s *Server) rebuildProviders() error {
	reg, err := providers.BuildRegistry(s.cfg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg = reg
	s.board = board.New(reg, s.projects, s.exchanges, board.Options{
		Watchlist:    s.cfg.Board.StockWatchlist,
		CoinPageSize: s.cfg.Board.CoinPageSize,
		NewsLimit:    s.cfg.Board.NewsLimit,
	})
	s.gen = insight.NewGenerator(buildLLMRouter(s.cfg), reg, llm.ChatOptions{
		Model:       s.cfg.LLM.Model,
		Temperature: s.cfg.LLM.Temperature,
		MaxTokens:   s.cfg.LLM.MaxTokens,
	})
	return nil
}

// mergeKeys copies non-empty fields from src into dst.
func mergeKeys(dst *config.APIKeys, src config.APIKeys) {
	if src.CoinGecko != "" {
		dst.CoinGecko = src.CoinGecko
	}
	if src.AlphaVantage != "" {
		dst.AlphaVantage = src.AlphaVantage
	}
	if src.OpenAI != "" {
		dst.OpenAI = src.OpenAI
	}
	if src.Payment != "" {
		dst.Payment = src.Payment
	}
}
