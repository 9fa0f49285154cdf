package components

import (
	"testing"

	"github.com/equity-capital-ledger/internal/capital_processor/service"
	"github.com/equity-capital-ledger/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestCreateProcessingService(t *testing.T) {
	t.Run("creates worker pool service with valid config", func(t *testing.T) {
		cfg := &config.Config{WorkerPool: config.WorkerPoolConfig{Size: 5}}

		processingService := CreateProcessingService(nil, &MockRunRepo{}, newTestLogger(), cfg)

		pooled, ok := processingService.(*service.WorkerPoolProcessingService)
		assert.True(t, ok)
		assert.Equal(t, 5, pooled.Capacity())
		pooled.Shutdown()
	})

	t.Run("returns a usable service without a pool size", func(t *testing.T) {
		cfg := &config.Config{WorkerPool: config.WorkerPoolConfig{Size: 0}}

		processingService := CreateProcessingService(nil, &MockRunRepo{}, newTestLogger(), cfg)

		assert.NotNil(t, processingService)
		if pooled, ok := processingService.(*service.WorkerPoolProcessingService); ok {
			pooled.Shutdown()
		}
	})
}
