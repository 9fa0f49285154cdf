package handler

import (
	"log/slog"
	"net/http"

	"github.com/equity-capital-ledger/internal/api_gateway/service"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// AccountHandler handles HTTP requests for the chart of accounts
type AccountHandler struct {
	accountService service.AccountService
	ledgerService  service.LedgerService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService, ledgerService service.LedgerService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
		logger:         logger,
	}
}

// Create adds a ledger account to an existing company
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if !bindJSON(c, h.logger, &req) {
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.Name, req.Company, shared.RootType(req.RootType), req.Currency)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByID retrieves an account by its ID
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "account")
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccountByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondOK(c, mapAccountToResponse(acc))
}

// List returns the accounts of the company named in the query string
func (h *AccountHandler) List(c *gin.Context) {
	company := c.Query("company")
	if company == "" {
		RespondBadRequest(c, "company query parameter is required")
		return
	}

	accounts, err := h.accountService.ListAccounts(c.Request.Context(), company)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	out := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		out = append(out, mapAccountToResponse(acc))
	}
	RespondOK(c, out)
}

// Postings returns a page of general ledger postings that touch the account
func (h *AccountHandler) Postings(c *gin.Context) {
	id, ok := idParam(c, h.logger, "id", "account")
	if !ok {
		return
	}
	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	postings, total, err := h.ledgerService.GetAccountPostings(c.Request.Context(), id, params.Page, params.PerPage)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	RespondWithPaginatedData(c, http.StatusOK, postings, params.Page, params.PerPage, int(total))
}
