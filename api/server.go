// Package api provides the HTTP REST API server for CoinScope.
//
// It exposes the dashboard sections (coins, exchanges, NFTs, stocks, news,
// market status), admin CRUD for manual listings and promo banners, the
// settings endpoints, and WebSocket streaming of promo rotation and quote
// refreshes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/coinscope/internal/auth"
	"github.com/seenimoa/coinscope/internal/board"
	"github.com/seenimoa/coinscope/internal/config"
	"github.com/seenimoa/coinscope/internal/insight"
	"github.com/seenimoa/coinscope/internal/listing"
	"github.com/seenimoa/coinscope/internal/llm"
	"github.com/seenimoa/coinscope/internal/payment"
	"github.com/seenimoa/coinscope/internal/promo"
	"github.com/seenimoa/coinscope/internal/provider"
	"github.com/seenimoa/coinscope/internal/providers"
	"github.com/seenimoa/coinscope/internal/store"
	"github.com/seenimoa/coinscope/web"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config

	st *store.Store

	// mu guards reg, board, and gen, which are swapped wholesale when the
	// API key settings change.
	mu    sync.RWMutex
	reg   *provider.Registry
	board *board.Board
	gen   *insight.Generator

	projects  *listing.ManualCollection
	exchanges *listing.ManualCollection
	promos    *promo.Collection
	rotator   *promo.Rotator
	gate      *auth.Gate
	wsHub     *WSHub

	serveUI  bool // when true, serve the embedded web UI at /
	stopPush chan struct{}
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	st, err := store.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// Locally-stored keys take precedence over config/env values.
	var keys config.APIKeys
	st.Load(store.KeyAPIKeys, &keys)
	keys.Merge(cfg)

	reg, err := providers.BuildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("provider setup: %w", err)
	}

	projects := listing.NewManualCollection(st, store.KeyManualProjects)
	manualExchanges := listing.NewManualCollection(st, store.KeyManualExchanges)

	var confirmer payment.Confirmer
	if cfg.Payment.BaseURL != "" {
		confirmer = payment.NewHTTPConfirmer(cfg.Payment.BaseURL, cfg.Payment.APIKey)
	}
	promos := promo.NewCollection(st, confirmer)

	srv := &Server{
		cfg:       cfg,
		st:        st,
		reg:       reg,
		projects:  projects,
		exchanges: manualExchanges,
		promos:    promos,
		gate:      auth.NewGate(st),
		wsHub:     NewWSHub(),
		serveUI:   true,
		stopPush:  make(chan struct{}),
	}

	srv.board = board.New(reg, projects, manualExchanges, board.Options{
		Watchlist:    cfg.Board.StockWatchlist,
		CoinPageSize: cfg.Board.CoinPageSize,
		NewsLimit:    cfg.Board.NewsLimit,
	})

	srv.gen = insight.NewGenerator(buildLLMRouter(cfg), reg, llm.ChatOptions{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	srv.rotator = promo.NewRotator(
		promo.WithInterval(time.Duration(cfg.Promo.RotateSec)*time.Second),
		promo.WithTransition(time.Duration(cfg.Promo.TransitionMs)*time.Millisecond),
		promo.WithReevalInterval(time.Duration(cfg.Promo.ReevalSec)*time.Second),
		promo.WithOnChange(func(status promo.Status) {
			srv.wsHub.Broadcast(WSMessage{Type: "promo_rotation", Data: status})
		}),
	)
	srv.rotator.SetItems(promos.List())

	srv.router = srv.buildRouter()
	return srv, nil
}

// buildLLMRouter assembles the generative backends from config. A nil
// router is valid: the insight endpoint then reports unavailability.
func buildLLMRouter(cfg *config.Config) *llm.Router {
	var providers []llm.LLMProvider

	if cfg.LLM.OpenAIKey != "" {
		p, err := llm.NewOpenAIProvider(cfg.LLM.OpenAIKey, llm.WithOpenAIModel(cfg.LLM.Model))
		if err == nil {
			providers = append(providers, p)
		}
	}
	if cfg.LLM.OllamaURL != "" {
		p, err := llm.NewOllamaProvider(cfg.LLM.OllamaURL)
		if err == nil {
			providers = append(providers, p)
		}
	}
	if len(providers) == 0 {
		return nil
	}

	// Honor the configured primary by moving it to the front.
	if cfg.LLM.Primary != "" && providers[0].Name() != cfg.LLM.Primary {
		for i, p := range providers {
			if p.Name() == cfg.LLM.Primary {
				providers[0], providers[i] = providers[i], providers[0]
				break
			}
		}
	}

	return llm.NewRouter(providers...)
}

// SetServeUI controls whether the embedded web UI is served.
// Must be called before ListenAndServe.
func (s *Server) SetServeUI(enabled bool) {
	s.serveUI = enabled
	s.router = s.buildRouter()
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// registry, sections, and insights read the swappable fetch stack. Settings
// updates replace all three (see rebuildProviders), so handlers must go
// through these accessors instead of the struct fields.
func (s *Server) registry() *provider.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

func (s *Server) sections() *board.Board {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.board
}

func (s *Server) insights() *insight.Generator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// ListenAndServe starts the HTTP server with graceful shutdown. The promo
// rotator and the push loops run for the lifetime of the server and are
// stopped before shutdown returns.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.wsHub.Run()
	s.rotator.Start()
	go s.quoteRefreshLoop()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	s.rotator.Stop()
	close(s.stopPush)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Dashboard sections
		r.Get("/board", s.handleBoard)
		r.Get("/coins", s.handleCoins)
		r.Get("/coins/{id}", s.handleCoinDetail)
		r.Get("/coins/{id}/chart", s.handleCoinChart)
		r.Get("/exchanges", s.handleExchanges)
		r.Get("/nfts", s.handleNFTs)
		r.Get("/news", s.handleNews)
		r.Get("/market/status", s.handleMarketStatus)
		r.Get("/stocks/{symbol}", s.handleStockQuote)
		r.Get("/stocks/{symbol}/series", s.handleStockSeries)
		r.Get("/insight/{symbol}", s.handleInsight)

		// Auth
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		// Manual listings (reads public, writes admin-gated)
		r.Get("/projects", s.handleListProjects)
		r.Get("/exchanges/manual", s.handleListManualExchanges)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/projects", s.handleCreateProject)
			r.Put("/projects/{id}", s.handleUpdateProject)
			r.Delete("/projects/{id}", s.handleDeleteProject)
			r.Post("/exchanges/manual", s.handleCreateManualExchange)
			r.Put("/exchanges/manual/{id}", s.handleUpdateManualExchange)
			r.Delete("/exchanges/manual/{id}", s.handleDeleteManualExchange)
		})

		// Promo banners
		r.Get("/promos", s.handleListPromos)
		r.Get("/promos/current", s.handleCurrentPromo)
		r.Post("/promos/checkout", s.handlePromoCheckout)
		r.Post("/promos/checkout/{ref}/complete", s.handlePromoCheckoutComplete)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/promos", s.handleCreatePromo)
			r.Put("/promos/{id}", s.handleUpdatePromo)
			r.Delete("/promos/{id}", s.handleDeletePromo)
		})

		// Settings (admin-gated)
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Put("/settings/credentials", s.handleUpdateCredentials)
			r.Get("/settings/keys", s.handleGetKeys)
			r.Put("/settings/keys", s.handleUpdateKeys)
			r.Get("/settings/providers", s.handleListProviders)
		})

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	// Serve embedded web UI (SPA with fallback to index.html)
	if s.serveUI {
		s.mountSPA(r, web.DistFS())
	}

	return r
}

// mountSPA serves the embedded static dashboard as a single-page app.
// Static assets are served directly; unknown paths fall back to index.html
// for client-side routing.
func (s *Server) mountSPA(r chi.Router, distFS fs.FS) {
	fileServer := http.FileServer(http.FS(distFS))

	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		rPath := strings.TrimPrefix(r.URL.Path, "/")
		if rPath == "" {
			rPath = "index.html"
		}

		f, err := distFS.Open(rPath)
		if err != nil {
			serveIndexHTML(w, r, distFS)
			return
		}
		f.Close()

		if rPath == "index.html" || strings.HasSuffix(rPath, ".html") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}

		fileServer.ServeHTTP(w, r)
	})
}

// serveIndexHTML reads and serves the embedded index.html for SPA fallback.
func serveIndexHTML(w http.ResponseWriter, r *http.Request, distFS fs.FS) {
	data, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		http.Error(w, "web UI not available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// LoginRequest is the body for POST /api/v1/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and its capability.
type LoginResponse struct {
	Token      string `json:"token"`
	Privileged bool   `json:"privileged"`
}

// ============================================================
// Dashboard handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "ok",
			"version":   "dev",
			"providers": len(s.registry().List()),
			"time":      time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	snap := s.sections().Snapshot(ctx)
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: snap})
}

func (s *Server) handleCoins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	coins, err := s.sections().Coins(ctx, r.URL.Query().Get("filter"))
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: coins})
}

func (s *Server) handleCoinDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "coin id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.registry().Fetch(ctx, provider.ModelCoinDetail, provider.QueryParams{
		provider.ParamSymbol: id,
	})
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res.Data})
}

func (s *Server) handleCoinChart(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "coin id is required")
		return
	}

	params := provider.QueryParams{provider.ParamSymbol: id}
	if days := r.URL.Query().Get("days"); days != "" {
		params[provider.ParamDays] = days
	}
	if currency := r.URL.Query().Get("currency"); currency != "" {
		params[provider.ParamCurrency] = currency
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.registry().Fetch(ctx, provider.ModelCoinHistory, params)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res.Data})
}

func (s *Server) handleExchanges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	exchanges, err := s.sections().Exchanges(ctx, r.URL.Query().Get("filter"))
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: exchanges})
}

func (s *Server) handleNFTs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	nfts, err := s.sections().NFTs(ctx)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: nfts})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	news, err := s.sections().News(ctx)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: news})
}

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	status, err := s.sections().MarketStatus(ctx)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: status})
}

func (s *Server) handleStockQuote(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.registry().Fetch(ctx, provider.ModelStockQuote, provider.QueryParams{
		provider.ParamSymbol: symbol,
	})
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res.Data})
}

func (s *Server) handleStockSeries(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	params := provider.QueryParams{provider.ParamSymbol: symbol}
	if interval := r.URL.Query().Get("interval"); interval != "" {
		params[provider.ParamInterval] = interval
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	res, err := s.registry().Fetch(ctx, provider.ModelStockSeries, params)
	if err != nil {
		writeFetchError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res.Data})
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	summary, err := s.insights().BullBear(ctx, symbol)
	if err != nil {
		if errors.Is(err, insight.ErrUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: summary})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// writeFetchError maps provider failures onto HTTP statuses: rate limits
// become 429, everything else 502.
func writeFetchError(w http.ResponseWriter, err error) {
	if errors.Is(err, provider.ErrRateLimited) {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, err.Error())
}

// quoteRefreshLoop periodically pushes fresh watchlist quotes to connected
// WebSocket clients. The loop exits when stopPush closes.
func (s *Server) quoteRefreshLoop() {
	interval := time.Duration(s.cfg.Board.QuoteRefreshSec) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if s.wsHub.ClientCount() == 0 {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			quotes, err := s.sections().Stocks(ctx)
			cancel()
			if err != nil {
				log.Printf("quote refresh failed: %v", err)
				continue
			}
			s.wsHub.Broadcast(WSMessage{Type: "quotes", Data: quotes})
		case <-s.stopPush:
			return
		}
	}
}
