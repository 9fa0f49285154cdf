package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/equity-capital-ledger/internal/api_gateway"
	"github.com/equity-capital-ledger/internal/api_gateway/handler"
	"github.com/equity-capital-ledger/internal/api_gateway/service"
	"github.com/equity-capital-ledger/internal/capital/fx"
	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/config"
	"github.com/equity-capital-ledger/internal/data/mongo"
	"github.com/equity-capital-ledger/internal/data/postgres"
	"github.com/equity-capital-ledger/internal/logger"
	"github.com/equity-capital-ledger/internal/platform/messaging/producers"
	"github.com/equity-capital-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	// runs the Postgres migrations before returning
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}
	if err := mongo.EnsureIndexes(appCtx, mongoDB.Database()); err != nil {
		log.Error("Failed to create MongoDB indexes", "error", err)
		os.Exit(1)
	}

	if err := producers.EnsureTopic(cfg.Kafka.Brokers, cfg.Kafka.AccrualTopic, cfg.Kafka.NumPartitions, cfg.Kafka.ReplicationFactor, log); err != nil {
		log.Error("Failed to ensure accrual topic exists", "topic", cfg.Kafka.AccrualTopic, "error", err)
		os.Exit(1)
	}
	accrualProducer, err := producers.NewAccrualRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize accrual request producer", "error", err)
		os.Exit(1)
	}

	repos := capital.Repositories{
		Companies:    postgres.NewCompanyRepository(log, postgresDB),
		Accounts:     postgres.NewAccountRepository(log, postgresDB),
		Shareholders: postgres.NewShareholderRepository(log, postgresDB),
		Agreements:   postgres.NewAgreementRepository(log, postgresDB),
		LoanNotes:    postgres.NewLoanNoteRepository(log, postgresDB),
		Movements:    postgres.NewMovementRepository(log, postgresDB),
		Postings:     postgres.NewPostingRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}
	rates := fx.NewConverter(log, postgres.NewExchangeRateRepository(log, postgresDB), cfg.FX.CacheTTL, cfg.FX.CacheCleanupInterval)

	accrualRuns := mongo.NewAccrualRunRepository(log, mongoDB.Database())
	generalLedger := mongo.NewGeneralLedgerRepository(log, mongoDB.Database())

	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		Capital:  capital.NewCapitalService(log, postgresDB, repos, rates),
		Accounts: service.NewAccountService(repos.Accounts, repos.Companies),
		Accruals: service.NewAccrualService(log, accrualProducer, accrualRuns, cfg.Capital.AccrualBatchLimit),
		Ledger:   service.NewLedgerService(log, generalLedger),
		Health: map[string]handler.Pinger{
			"postgres": postgresDB,
			"mongodb":  mongoDB,
		},
	})

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// stop taking requests before the stores go away
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}
	if err := accrualProducer.Close(); err != nil {
		log.Error("Error closing accrual request producer", "error", err)
		shutdownErr = err
	}
	postgresDB.Close()
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if serverErr != nil || shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}
