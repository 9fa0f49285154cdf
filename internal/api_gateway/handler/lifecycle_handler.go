package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/equity-capital-ledger/internal/capital/cascade"
	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// LifecycleHandler cancels and deletes records together with everything derived from them
type LifecycleHandler struct {
	capital capital.CapitalService
	logger  *slog.Logger
}

func NewLifecycleHandler(logger *slog.Logger, capitalService capital.CapitalService) *LifecycleHandler {
	return &LifecycleHandler{capital: capitalService, logger: logger}
}

// Cancel returns a handler cancelling the record of the given kind named by the :id parameter
func (h *LifecycleHandler) Cancel(kind shared.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.run(c, kind, h.capital.Cancel)
	}
}

// Delete returns a handler deleting the cancelled record of the given kind
func (h *LifecycleHandler) Delete(kind shared.DocumentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.run(c, kind, h.capital.Delete)
	}
}

func (h *LifecycleHandler) run(c *gin.Context, kind shared.DocumentKind, op func(ctx context.Context, ref cascade.Ref) (*cascade.Report, error)) {
	id, ok := idParam(c, h.logger, "id", string(kind))
	if !ok {
		return
	}

	report, err := op(c.Request.Context(), cascade.Ref{Kind: kind, ID: id})
	if err != nil {
		// the partial report goes back with the conflict
		if report != nil && errors.Is(err, shared.ErrCascadeIncomplete{}) {
			h.logger.Warn("Cascade incomplete", "kind", string(kind), "id", id, "failed", len(report.Failed()))
			RespondWithPartialData(c, http.StatusConflict, "CASCADE_INCOMPLETE", err.Error(), report)
			return
		}
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, report)
}
