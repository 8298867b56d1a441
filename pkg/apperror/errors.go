package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error independently of its transport mapping.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindUnauthorized          Kind = "UNAUTHORIZED"
	KindWrongState            Kind = "WRONG_STATE"
	KindInsufficientFunds     Kind = "INSUFFICIENT_FUNDS"
	KindInsufficientAllowance Kind = "INSUFFICIENT_ALLOWANCE"
	KindInvalidArgument       Kind = "INVALID_ARGUMENT"
	KindAlreadyExists         Kind = "ALREADY_EXISTS"
	KindInternal              Kind = "INTERNAL"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Kind       Kind   `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func newKind(kind Kind, code, message string, httpStatus int) *AppError {
	e := New(code, message, httpStatus)
	e.Kind = kind
	return e
}

// KindOf returns the Kind of err, or KindInternal for errors that are not AppErrors.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given error code.
func Is(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// ---- Token Ledger (LED) ----

func ErrInsufficientBalance() *AppError {
	return newKind(KindInsufficientFunds, "LED_001", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrInsufficientAllowance() *AppError {
	return newKind(KindInsufficientAllowance, "LED_002", "Insufficient allowance", http.StatusPaymentRequired)
}

func ErrNotMinter() *AppError {
	return newKind(KindUnauthorized, "LED_003", "Caller is not allowed to mint", http.StatusForbidden)
}

func ErrInvalidAmount() *AppError {
	return newKind(KindInvalidArgument, "LED_004", "Invalid amount", http.StatusBadRequest)
}

func ErrEscrowLocked() *AppError {
	return newKind(KindUnauthorized, "LED_005", "Escrow funds move only through order settlement", http.StatusForbidden)
}

// ---- Reputation Registry (REP) ----

func ErrAlreadyHasCredential() *AppError {
	return newKind(KindAlreadyExists, "REP_001", "Identity already holds a seller credential", http.StatusConflict)
}

func ErrCredentialNotFound() *AppError {
	return newKind(KindNotFound, "REP_002", "Credential not found", http.StatusNotFound)
}

func ErrNotOutcomeRecorder() *AppError {
	return newKind(KindUnauthorized, "REP_003", "Caller may not record outcomes", http.StatusForbidden)
}

// ---- Gig Registry (GIG) ----

func ErrGigNotFound() *AppError {
	return newKind(KindNotFound, "GIG_001", "Gig not found", http.StatusNotFound)
}

func ErrNoSellerCredential() *AppError {
	return newKind(KindUnauthorized, "GIG_002", "Seller credential required", http.StatusForbidden)
}

func ErrNotGigOwner() *AppError {
	return newKind(KindUnauthorized, "GIG_003", "Caller is not the gig owner", http.StatusForbidden)
}

func ErrGigInactive() *AppError {
	return newKind(KindWrongState, "GIG_004", "Gig is not active", http.StatusConflict)
}

func ErrInvalidGig(message string) *AppError {
	return newKind(KindInvalidArgument, "GIG_005", message, http.StatusBadRequest)
}

// ---- Order Escrow (ORD) ----

func ErrOrderNotFound() *AppError {
	return newKind(KindNotFound, "ORD_001", "Order not found", http.StatusNotFound)
}

func ErrNotOrderBuyer() *AppError {
	return newKind(KindUnauthorized, "ORD_002", "Caller is not the order buyer", http.StatusForbidden)
}

func ErrNotOrderSeller() *AppError {
	return newKind(KindUnauthorized, "ORD_003", "Caller is not the order seller", http.StatusForbidden)
}

func ErrWrongState(current string) *AppError {
	return newKind(KindWrongState, "ORD_004", fmt.Sprintf("Operation not allowed in state %s", current), http.StatusConflict)
}

func ErrInvalidRating() *AppError {
	return newKind(KindInvalidArgument, "ORD_005", "Rating must be between 1 and 5", http.StatusBadRequest)
}

func ErrInvalidOrder(message string) *AppError {
	return newKind(KindInvalidArgument, "ORD_006", message, http.StatusBadRequest)
}

// ---- Administration (ADM) ----

func ErrNotAdmin() *AppError {
	return newKind(KindUnauthorized, "ADM_001", "Caller is not the administrator", http.StatusForbidden)
}

func ErrInvalidFee() *AppError {
	return newKind(KindInvalidArgument, "ADM_002", "Fee must not exceed 10000 basis points", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return newKind(KindUnauthorized, "AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- Idempotency (IDEM) ----

func ErrRequestInFlight() *AppError {
	return New("IDEM_001", "A request with this idempotency key is still being processed", http.StatusConflict)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	e := Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
	e.Kind = KindInternal
	return e
}

// ErrPayloadTooLarge rejects a body over the configured limit.
func ErrPayloadTooLarge() *AppError {
	return newKind(KindInvalidArgument, "REQ_002", "Request body too large", http.StatusRequestEntityTooLarge)
}

// Validation returns a request validation error.
func Validation(message string) *AppError {
	return newKind(KindInvalidArgument, "REQ_001", message, http.StatusBadRequest)
}
