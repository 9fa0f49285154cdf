package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/equity-capital-ledger/internal/api_gateway/handler"
	"github.com/equity-capital-ledger/internal/api_gateway/service"
	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/config"
	"github.com/gin-gonic/gin"
)

// Services are the application services the gateway exposes over HTTP
type Services struct {
	Capital  capital.CapitalService
	Accounts service.AccountService
	Accruals service.AccrualService
	Ledger   service.LedgerService
	// Health maps a store name to its availability check
	Health map[string]handler.Pinger
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, svc Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()
	setupRouter(log, httpRouter, handlers{
		accounts:   handler.NewAccountHandler(log, svc.Accounts, svc.Ledger),
		agreements: handler.NewAgreementHandler(log, svc.Capital),
		movements:  handler.NewMovementHandler(log, svc.Capital),
		loanNotes:  handler.NewLoanNoteHandler(log, svc.Capital, svc.Accruals),
		lifecycle:  handler.NewLifecycleHandler(log, svc.Capital),
		register:   handler.NewRegisterHandler(log, svc.Capital),
		postings:   handler.NewPostingHandler(log, svc.Capital, svc.Accruals),
		health:     handler.NewHealthHandler(log, svc.Health),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the write timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
