package handler

import (
	"log/slog"
	"time"

	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// RegisterHandler serves the shareholder register
type RegisterHandler struct {
	capital capital.CapitalService
	logger  *slog.Logger
}

func NewRegisterHandler(logger *slog.Logger, capitalService capital.CapitalService) *RegisterHandler {
	return &RegisterHandler{capital: capitalService, logger: logger}
}

// Holdings returns per-holder share counts of a company as of a date, today when omitted
func (h *RegisterHandler) Holdings(c *gin.Context) {
	company := c.Param("company")
	var q HoldingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	asOf := shared.NormalizeDate(time.Now())
	if q.AsOf != "" {
		d, err := parseDate(q.AsOf)
		if err != nil {
			RespondBadRequest(c, "invalid as_of: "+err.Error())
			return
		}
		asOf = d
	}

	holdings, err := h.capital.HoldingsReport(c.Request.Context(), company, asOf, q.ShareClass)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, HoldingsResponse{
		Company:  company,
		AsOf:     asOf.Format(time.DateOnly),
		Holdings: holdings,
	})
}
