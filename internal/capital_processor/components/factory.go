package components

import (
	"log/slog"

	"github.com/equity-capital-ledger/internal/capital_processor/service"
	"github.com/equity-capital-ledger/internal/config"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
)

// CreateProcessingService wires the accrual processing service behind a worker pool.
// It falls back to the unpooled service when the pool cannot be created.
func CreateProcessingService(
	accruer service.InterestAccruer,
	runs accrualrun.Repository,
	logger *slog.Logger,
	cfg *config.Config,
) service.ProcessingService {
	validator := NewRequestValidator(runs, logger)
	recorder := NewRunRecorder(runs, logger)

	baseService := service.NewProcessingService(accruer, validator, recorder, logger)

	workerPoolService, err := service.NewWorkerPoolProcessingService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool processing service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
