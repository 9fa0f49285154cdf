package handler

import (
	"log/slog"

	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/gin-gonic/gin"
)

// MovementHandler handles share movement requests
type MovementHandler struct {
	capital capital.CapitalService
	logger  *slog.Logger
}

func NewMovementHandler(logger *slog.Logger, capitalService capital.CapitalService) *MovementHandler {
	return &MovementHandler{capital: capitalService, logger: logger}
}

// Record stores a manual transfer, buyback or issuance
func (h *MovementHandler) Record(c *gin.Context) {
	var req RecordMovementRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	m, err := req.toMovement()
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	recorded, err := h.capital.RecordMovement(c.Request.Context(), m)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, recorded)
}

func (h *MovementHandler) Get(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "movement")
	if !ok {
		return
	}
	m, err := h.capital.GetMovement(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, m)
}

// PostPayment books the cash side of an issuance or buyback
func (h *MovementHandler) PostPayment(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "movement")
	if !ok {
		return
	}
	p, err := h.capital.PostPayment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, p)
}
