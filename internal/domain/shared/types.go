package shared

import "fmt"

// DocStatus mirrors the document store lifecycle column.
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

func (s DocStatus) String() string {
	switch s {
	case DocStatusDraft:
		return "DRAFT"
	case DocStatusSubmitted:
		return "SUBMITTED"
	case DocStatusCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("DocStatus(%d)", int(s))
	}
}

// DocumentKind names the record types that take part in the reference graph
type DocumentKind string

const (
	DocumentKindAgreement DocumentKind = "agreement"
	DocumentKindLoanNote  DocumentKind = "loan_note"
	DocumentKindMovement  DocumentKind = "movement"
	DocumentKindPosting   DocumentKind = "posting"
)

// MovementKind classifies a share movement
type MovementKind string

const (
	MovementKindEquityCapitalInjection MovementKind = "EQUITY_CAPITAL_INJECTION"
	MovementKindInitialShareIssuance   MovementKind = "INITIAL_SHARE_ISSUANCE"
	MovementKindShareSubscription      MovementKind = "SHARE_SUBSCRIPTION"
	MovementKindSharePurchase          MovementKind = "SHARE_PURCHASE"
	MovementKindRightsIssue            MovementKind = "RIGHTS_ISSUE"
	MovementKindBonusIssue             MovementKind = "BONUS_ISSUE"
	MovementKindCLNConversion          MovementKind = "CLN_CONVERSION"
	MovementKindShareTransfer          MovementKind = "SHARE_TRANSFER"
	MovementKindShareBuyback           MovementKind = "SHARE_BUYBACK"
)

// Valid reports whether k is one of the known movement kinds
func (k MovementKind) Valid() bool {
	switch k {
	case MovementKindEquityCapitalInjection, MovementKindInitialShareIssuance, MovementKindShareSubscription,
		MovementKindSharePurchase, MovementKindRightsIssue, MovementKindBonusIssue, MovementKindCLNConversion,
		MovementKindShareTransfer, MovementKindShareBuyback:
		return true
	}
	return false
}

// IsIssuance reports whether the movement creates new shares for the receiving holder
func (k MovementKind) IsIssuance() bool {
	switch k {
	case MovementKindEquityCapitalInjection, MovementKindInitialShareIssuance, MovementKindShareSubscription,
		MovementKindSharePurchase, MovementKindRightsIssue, MovementKindBonusIssue, MovementKindCLNConversion:
		return true
	}
	return false
}

// IsCashInflow reports whether the company receives cash for the movement
func (k MovementKind) IsCashInflow() bool {
	switch k {
	case MovementKindEquityCapitalInjection, MovementKindInitialShareIssuance, MovementKindShareSubscription,
		MovementKindSharePurchase, MovementKindRightsIssue:
		return true
	}
	return false
}

// EventKind classifies a ledger posting by the capital event that produced it
type EventKind string

const (
	EventKindShareIssuance    EventKind = "SHARE_ISSUANCE"
	EventKindShareBuyback     EventKind = "SHARE_BUYBACK"
	EventKindLoanDisbursement EventKind = "CLN_DISBURSEMENT"
	EventKindInterestAccrual  EventKind = "CLN_INTEREST_ACCRUAL"
	EventKindLoanConversion   EventKind = "CLN_CONVERSION"
)

// InterestMethod selects the accrual formula of a loan note
type InterestMethod string

const (
	InterestMethodSimple   InterestMethod = "SIMPLE"
	InterestMethodCompound InterestMethod = "COMPOUND"
)

// Valid reports whether m is a supported interest method
func (m InterestMethod) Valid() bool {
	return m == InterestMethodSimple || m == InterestMethodCompound
}

// RootType is the top-level classification of a general ledger account
type RootType string

const (
	RootTypeAsset     RootType = "ASSET"
	RootTypeLiability RootType = "LIABILITY"
	RootTypeEquity    RootType = "EQUITY"
	RootTypeIncome    RootType = "INCOME"
	RootTypeExpense   RootType = "EXPENSE"
)

// AccrualRunStatus defines accrual request processing states
type AccrualRunStatus string

const (
	AccrualRunStatusPending   AccrualRunStatus = "PENDING"
	AccrualRunStatusCompleted AccrualRunStatus = "COMPLETED"
	AccrualRunStatusFailed    AccrualRunStatus = "FAILED"
)

// FailureReason defines accrual request failure categories
type FailureReason string

const (
	FailureReasonInvalidRequest   FailureReason = "INVALID_REQUEST"
	FailureReasonLoanNoteNotFound FailureReason = "LOAN_NOTE_NOT_FOUND"
	FailureReasonPrecondition     FailureReason = "PRECONDITION_FAILED"
	FailureReasonInvalidPeriod    FailureReason = "INVALID_PERIOD"
	FailureReasonZeroInterest     FailureReason = "ZERO_INTEREST"
	FailureReasonRateNotFound     FailureReason = "EXCHANGE_RATE_NOT_FOUND"
	FailureReasonAccountMisconfig FailureReason = "ACCOUNT_CLASSIFICATION"
	FailureReasonPostingImbalance FailureReason = "POSTING_IMBALANCE"
	FailureReasonCommitFailed     FailureReason = "TRANSACTION_COMMIT_FAILED"
	FailureReasonUnknownError     FailureReason = "UNKNOWN_ERROR"
)

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// OutboxEvent names the general ledger change carried by an outbox message
type OutboxEvent string

const (
	OutboxEventPostingCreated   OutboxEvent = "POSTING_CREATED"
	OutboxEventPostingCancelled OutboxEvent = "POSTING_CANCELLED"
	OutboxEventPostingDeleted   OutboxEvent = "POSTING_DELETED"
)
