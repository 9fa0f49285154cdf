package api_gateway

import (
	"log/slog"

	"github.com/equity-capital-ledger/internal/api_gateway/handler"
	"github.com/equity-capital-ledger/internal/api_gateway/middleware"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// handlers groups the HTTP handlers mounted by setupRouter
type handlers struct {
	accounts   *handler.AccountHandler
	agreements *handler.AgreementHandler
	movements  *handler.MovementHandler
	loanNotes  *handler.LoanNoteHandler
	lifecycle  *handler.LifecycleHandler
	register   *handler.RegisterHandler
	postings   *handler.PostingHandler
	health     *handler.HealthHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", h.accounts.Create)
			accounts.GET("", h.accounts.List)
			accounts.GET("/:id", h.accounts.GetByID)
			accounts.GET("/:id/postings", h.accounts.Postings)
		}

		agreements := v1.Group("/agreements")
		{
			agreements.POST("", h.agreements.Create)
			agreements.GET("/:id", h.agreements.Get)
			agreements.POST("/:id/submit", h.agreements.Submit)
			agreements.POST("/:id/issue", h.agreements.IssueShares)
			agreements.POST("/:id/cancel", h.lifecycle.Cancel(shared.DocumentKindAgreement))
			agreements.DELETE("/:id", h.lifecycle.Delete(shared.DocumentKindAgreement))
		}

		movements := v1.Group("/movements")
		{
			movements.POST("", h.movements.Record)
			movements.GET("/:id", h.movements.Get)
			movements.POST("/:id/payment", h.movements.PostPayment)
			movements.POST("/:id/cancel", h.lifecycle.Cancel(shared.DocumentKindMovement))
			movements.DELETE("/:id", h.lifecycle.Delete(shared.DocumentKindMovement))
		}

		loanNotes := v1.Group("/loan-notes")
		{
			loanNotes.POST("", h.loanNotes.Create)
			loanNotes.POST("/accruals", h.loanNotes.EnqueueBatch)
			loanNotes.GET("/:id", h.loanNotes.Get)
			loanNotes.POST("/:id/submit", h.loanNotes.Submit)
			loanNotes.POST("/:id/disburse", h.loanNotes.Disburse)
			loanNotes.POST("/:id/accrue", h.loanNotes.Accrue)
			loanNotes.POST("/:id/accruals", h.loanNotes.EnqueueAccrual)
			loanNotes.GET("/:id/accruals", h.loanNotes.ListAccrualRuns)
			loanNotes.POST("/:id/convert", h.loanNotes.Convert)
			loanNotes.POST("/:id/cancel", h.lifecycle.Cancel(shared.DocumentKindLoanNote))
			loanNotes.DELETE("/:id", h.lifecycle.Delete(shared.DocumentKindLoanNote))
		}

		postings := v1.Group("/postings")
		{
			postings.GET("/:id", h.postings.Get)
			postings.POST("/:id/cancel", h.lifecycle.Cancel(shared.DocumentKindPosting))
			postings.DELETE("/:id", h.lifecycle.Delete(shared.DocumentKindPosting))
		}

		v1.GET("/accrual-runs/:id", h.postings.GetAccrualRun)
		v1.GET("/companies/:company/register", h.register.Holdings)
	}

	r.GET("/health", h.health.Check)
}
