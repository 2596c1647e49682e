package service

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInternal     ErrorKind = "internal"
)

// Error is a typed domain failure. Reason is the machine-checkable code sent
// to clients; handlers derive the HTTP status from Kind.
type Error struct {
	Kind    ErrorKind
	Reason  string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

var (
	ErrValidation   = newError(KindValidation, "VALIDATION_ERROR", "invalid request")
	ErrUnauthorized = newError(KindUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrForbidden    = newError(KindForbidden, "FORBIDDEN", "not allowed")
	ErrNotFound     = newError(KindNotFound, "NOT_FOUND", "not found")
	ErrInternal     = newError(KindInternal, "INTERNAL", "internal error")

	// auth
	ErrEmailInUse         = newError(KindConflict, "EMAIL_IN_USE", "email already in use")
	ErrInvalidCredentials = newError(KindUnauthorized, "INVALID_CREDENTIALS", "invalid credentials")
	ErrInvalidToken       = newError(KindUnauthorized, "INVALID_TOKEN", "invalid token")
	ErrExpiredToken       = newError(KindUnauthorized, "TOKEN_EXPIRED", "token has expired")
	ErrAccountInactive    = newError(KindForbidden, "ACCOUNT_NOT_ACTIVATED", "account is not activated")
	ErrAccountLinkInvalid = newError(KindValidation, "ACCOUNT_LINK_INVALID", "link is invalid, expired or already used")

	// cart and checkout
	ErrEmptyCart         = newError(KindValidation, "EMPTY_CART", "cart is empty")
	ErrInsufficientStock = newError(KindConflict, "INSUFFICIENT_STOCK", "not enough copies available")
	ErrUnpaidOverdueFee  = newError(KindConflict, "UNPAID_OVERDUE_FEE", "user has an unpaid overdue invoice")
	ErrCartChanged       = newError(KindConflict, "CART_CHANGED", "cart changed during checkout, retry")

	// loan transitions
	ErrNotPending        = newError(KindConflict, "NOT_PENDING", "loan is not pending")
	ErrNotCancelable     = newError(KindConflict, "NOT_CANCELABLE", "loan cannot be canceled")
	ErrNotReturnable     = newError(KindConflict, "NOT_RETURNABLE", "loan cannot be returned")
	ErrNotRenewable      = newError(KindConflict, "NOT_RENEWABLE", "loan cannot be renewed")
	ErrRenewLimitReached = newError(KindConflict, "RENEW_LIMIT_REACHED", "renew limit reached")
	ErrPastDue           = newError(KindConflict, "PAST_DUE", "loan is past its due date")
	ErrUnpaidInvoice     = newError(KindConflict, "UNPAID_INVOICE", "user has an unpaid invoice")
	ErrNotLosable        = newError(KindConflict, "NOT_LOSABLE", "loan cannot be marked lost")

	// pickup tokens
	ErrTokenInvalid = newError(KindValidation, "TOKEN_INVALID", "pickup token is invalid or expired")

	// invoices and ledger
	ErrInvoiceAlreadyPaid     = newError(KindConflict, "INVOICE_ALREADY_PAID", "invoice is already paid")
	ErrInvoiceVoid            = newError(KindConflict, "INVOICE_VOID", "invoice is void")
	ErrInvoiceNotVoidable     = newError(KindConflict, "INVOICE_NOT_VOIDABLE", "only unpaid invoices can be voided")
	ErrInvalidProvider        = newError(KindValidation, "INVALID_PROVIDER", "unknown payment provider")
	ErrTransactionNotPending  = newError(KindConflict, "TRANSACTION_NOT_PENDING", "transaction is not pending")
	ErrInvalidTransactionMove = newError(KindValidation, "INVALID_STATUS", "status must be succeeded or failed")

	// reviews
	ErrReviewExists     = newError(KindConflict, "REVIEW_EXISTS", "book already reviewed")
	ErrReviewNotAllowed = newError(KindForbidden, "REVIEW_NOT_ALLOWED", "only borrowers can review a book")
)

// invalid wraps ErrValidation with a detail message.
func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// AsError extracts the typed error from err. Untyped errors report ErrInternal
// and false.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return ErrInternal, false
}
