package handler

import (
	"log/slog"

	"github.com/equity-capital-ledger/internal/api_gateway/service"
	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/gin-gonic/gin"
)

// PostingHandler reads postings and queued accrual runs
type PostingHandler struct {
	capital  capital.CapitalService
	accruals service.AccrualService
	logger   *slog.Logger
}

func NewPostingHandler(logger *slog.Logger, capitalService capital.CapitalService, accrualService service.AccrualService) *PostingHandler {
	return &PostingHandler{capital: capitalService, accruals: accrualService, logger: logger}
}

// Get returns a posting from the document store, including cancelled ones
func (h *PostingHandler) Get(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "posting")
	if !ok {
		return
	}
	p, err := h.capital.GetPosting(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, p)
}

// GetAccrualRun reports the processing state of a queued accrual
func (h *PostingHandler) GetAccrualRun(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "accrual request")
	if !ok {
		return
	}
	run, err := h.accruals.GetRun(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, run)
}
