package handler

import (
	"errors"
	"log/slog"

	"github.com/equity-capital-ledger/internal/api_gateway/service"
	"github.com/equity-capital-ledger/internal/domain/account"
	"github.com/equity-capital-ledger/internal/domain/accrualrun"
	"github.com/equity-capital-ledger/internal/domain/agreement"
	"github.com/equity-capital-ledger/internal/domain/ledger"
	"github.com/equity-capital-ledger/internal/domain/loannote"
	"github.com/equity-capital-ledger/internal/domain/movement"
	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// validationErrors are rejected terms or states the caller can correct
var validationErrors = []error{
	shared.ErrPrecondition{},
	shared.ErrInvalidPeriod{},
	shared.ErrZeroOrNegativeResult{},
	shared.ErrRateNotFound{},
	shared.ErrAccountClassification{},
	shared.ErrInsufficientTerms{},
	shared.ErrInvalidCurrency,
	shared.ErrInvalidAmount,
	account.ErrEmptyName,
	account.ErrEmptyCompany,
	account.ErrUnknownRoot,
	agreement.ErrNoShares,
	agreement.ErrNonPositivePar,
	agreement.ErrPriceBelowPar,
	agreement.ErrMissingShareClass,
	agreement.ErrMissingAccount,
	agreement.ErrMissingPremium,
	agreement.ErrNonPositiveRate,
	loannote.ErrNonPositivePrincipal,
	loannote.ErrNegativeInterestRate,
	loannote.ErrInvalidMethod,
	loannote.ErrInvalidDiscount,
	loannote.ErrInvalidCap,
	loannote.ErrNonPositivePar,
	loannote.ErrMissingAccount,
	movement.ErrInvalidKind,
	movement.ErrNoShares,
	movement.ErrNonPositivePar,
	movement.ErrPriceBelowPar,
	movement.ErrMissingParty,
	movement.ErrMissingShareClass,
	movement.ErrConversionSource,
}

// respondServiceError maps a capital service error onto the response envelope
func respondServiceError(c *gin.Context, logger *slog.Logger, err error) {
	var (
		accountNotFound  account.ErrAccountNotFound
		duplicateAccount account.ErrDuplicateName
		agreementStale   agreement.ErrConcurrentModification
		loanNoteStale    loannote.ErrConcurrentModification
		movementStale    movement.ErrConcurrentModification
	)

	switch {
	case errors.Is(err, shared.ErrNotFound{}),
		errors.As(err, &accountNotFound),
		errors.Is(err, ledger.ErrEntryNotFound{}),
		errors.Is(err, accrualrun.ErrRunNotFound{}):
		RespondNotFound(c, err.Error())
	case errors.Is(err, shared.ErrAlreadyExists{}),
		errors.Is(err, shared.ErrCascadeIncomplete{}),
		errors.As(err, &duplicateAccount),
		errors.As(err, &agreementStale),
		errors.As(err, &loanNoteStale),
		errors.As(err, &movementStale):
		RespondConflict(c, err.Error())
	case errors.Is(err, service.ErrBatchTooLarge):
		RespondBadRequest(c, err.Error())
	case isValidationError(err):
		RespondUnprocessable(c, err.Error())
	case errors.Is(err, shared.ErrPostingImbalance{}):
		logger.Error("Posting imbalance", "error", err, "correlation_id", shared.CorrelationID(c.Request.Context()))
		RespondInternalError(c)
	default:
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		RespondInternalError(c)
	}
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
