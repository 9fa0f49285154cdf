package handler

import (
	"log/slog"
	"net/http"

	"github.com/equity-capital-ledger/internal/api_gateway/service"
	capital "github.com/equity-capital-ledger/internal/capital/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoanNoteHandler handles convertible loan note requests. Accruals can run inline
// or be queued for the capital processor.
type LoanNoteHandler struct {
	capital  capital.CapitalService
	accruals service.AccrualService
	logger   *slog.Logger
}

func NewLoanNoteHandler(logger *slog.Logger, capitalService capital.CapitalService, accrualService service.AccrualService) *LoanNoteHandler {
	return &LoanNoteHandler{capital: capitalService, accruals: accrualService, logger: logger}
}

func (h *LoanNoteHandler) Create(c *gin.Context) {
	var req CreateLoanNoteRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	n, err := req.toLoanNote()
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	created, err := h.capital.CreateLoanNote(c.Request.Context(), n)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, created)
}

func (h *LoanNoteHandler) Get(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "loan note")
	if !ok {
		return
	}
	n, err := h.capital.GetLoanNote(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, n)
}

func (h *LoanNoteHandler) Submit(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "loan note")
	if !ok {
		return
	}
	n, err := h.capital.SubmitLoanNote(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, n)
}

// Disburse posts the principal received and activates the note
func (h *LoanNoteHandler) Disburse(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "loan note")
	if !ok {
		return
	}
	p, err := h.capital.DisburseLoan(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, p)
}

// Accrue accrues interest inline and returns the new accrual record
func (h *LoanNoteHandler) Accrue(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "loan note")
	if !ok {
		return
	}
	var req AccrueInterestRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	asOf, err := parseDate(req.AsOfDate)
	if err != nil {
		RespondBadRequest(c, "invalid as_of_date: "+err.Error())
		return
	}

	res, err := h.capital.AccrueInterest(c.Request.Context(), capital.AccrualInput{
		LoanNoteID:   id,
		AsOfDate:     asOf,
		ExchangeRate: req.ExchangeRate,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, res)
}

// EnqueueAccrual queues an accrual for the capital processor and answers 202
func (h *LoanNoteHandler) EnqueueAccrual(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "loan note")
	if !ok {
		return
	}
	var req AccrueInterestRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	asOf, err := parseDate(req.AsOfDate)
	if err != nil {
		RespondBadRequest(c, "invalid as_of_date: "+err.Error())
		return
	}

	queued, err := h.accruals.EnqueueAccrual(c.Request.Context(), id, asOf, req.ExchangeRate)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondAccepted(c, queued)
}

// EnqueueBatch queues one accrual per loan note. When publishing stops part way the
// requests already queued are returned with the error.
func (h *LoanNoteHandler) EnqueueBatch(c *gin.Context) {
	var req BatchAccrualRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	asOf, err := parseDate(req.AsOfDate)
	if err != nil {
		RespondBadRequest(c, "invalid as_of_date: "+err.Error())
		return
	}
	ids := make([]uuid.UUID, 0, len(req.LoanNoteIDs))
	for _, raw := range req.LoanNoteIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid loan note ID: "+raw)
			return
		}
		ids = append(ids, id)
	}

	queued, err := h.accruals.EnqueueBatch(c.Request.Context(), ids, asOf)
	if err != nil && len(queued) > 0 {
		h.logger.Error("Accrual batch partially queued", "queued", len(queued), "requested", len(ids), "error", err)
		RespondWithPartialData(c, http.StatusServiceUnavailable, "PARTIALLY_QUEUED", err.Error(), queued)
		return
	}
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondAccepted(c, queued)
}

// ListAccrualRuns pages through the queued accruals of one loan note
func (h *LoanNoteHandler) ListAccrualRuns(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "loan note")
	if !ok {
		return
	}
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	runs, err := h.accruals.ListRuns(c.Request.Context(), id, params.Page, params.PerPage)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, runs)
}

// Convert turns principal plus accrued interest into shares
func (h *LoanNoteHandler) Convert(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "loan note")
	if !ok {
		return
	}
	var req ConvertLoanRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}
	date, err := parseDate(req.ConversionDate)
	if err != nil {
		RespondBadRequest(c, "invalid conversion_date: "+err.Error())
		return
	}

	res, err := h.capital.ConvertLoan(c.Request.Context(), capital.ConversionInput{
		LoanNoteID:         id,
		ConversionDate:     date,
		NextRoundPrice:     req.NextRoundPrice,
		FullyDilutedShares: req.FullyDilutedShares,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, res)
}
