package handler

import (
	"log/slog"

	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/gin-gonic/gin"
)

// AgreementHandler handles capital agreement requests
type AgreementHandler struct {
	capital capital.CapitalService
	logger  *slog.Logger
}

func NewAgreementHandler(logger *slog.Logger, capitalService capital.CapitalService) *AgreementHandler {
	return &AgreementHandler{capital: capitalService, logger: logger}
}

// Create stores a draft agreement
func (h *AgreementHandler) Create(c *gin.Context) {
	var req CreateAgreementRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	a, err := req.toAgreement()
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	created, err := h.capital.CreateAgreement(c.Request.Context(), a)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, created)
}

func (h *AgreementHandler) Get(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "agreement")
	if !ok {
		return
	}
	a, err := h.capital.GetAgreement(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, a)
}

// Submit validates the terms and finalizes the agreement
func (h *AgreementHandler) Submit(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "agreement")
	if !ok {
		return
	}
	a, err := h.capital.SubmitAgreement(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, a)
}

// IssueShares creates the share movement for a submitted agreement
func (h *AgreementHandler) IssueShares(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "agreement")
	if !ok {
		return
	}
	m, err := h.capital.IssueShares(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, m)
}
