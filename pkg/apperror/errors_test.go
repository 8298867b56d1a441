package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without wrapped error",
			appErr:   New("LED_001", "Insufficient balance", http.StatusPaymentRequired),
			expected: "[LED_001] Insufficient balance",
		},
		{
			name:     "with wrapped error",
			appErr:   Wrap("SYS_001", "DB error", http.StatusInternalServerError, fmt.Errorf("connection refused")),
			expected: "[SYS_001] DB error: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := InternalError(inner)

	assert.True(t, errors.Is(appErr, inner))
	assert.Nil(t, New("LED_001", "test", http.StatusBadRequest).Unwrap())
}

func TestDomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		code       string
		kind       Kind
		httpStatus int
	}{
		{"InsufficientBalance", ErrInsufficientBalance(), "LED_001", KindInsufficientFunds, 402},
		{"InsufficientAllowance", ErrInsufficientAllowance(), "LED_002", KindInsufficientAllowance, 402},
		{"NotMinter", ErrNotMinter(), "LED_003", KindUnauthorized, 403},
		{"InvalidAmount", ErrInvalidAmount(), "LED_004", KindInvalidArgument, 400},
		{"EscrowLocked", ErrEscrowLocked(), "LED_005", KindUnauthorized, 403},
		{"AlreadyHasCredential", ErrAlreadyHasCredential(), "REP_001", KindAlreadyExists, 409},
		{"CredentialNotFound", ErrCredentialNotFound(), "REP_002", KindNotFound, 404},
		{"NotOutcomeRecorder", ErrNotOutcomeRecorder(), "REP_003", KindUnauthorized, 403},
		{"GigNotFound", ErrGigNotFound(), "GIG_001", KindNotFound, 404},
		{"NoSellerCredential", ErrNoSellerCredential(), "GIG_002", KindUnauthorized, 403},
		{"NotGigOwner", ErrNotGigOwner(), "GIG_003", KindUnauthorized, 403},
		{"GigInactive", ErrGigInactive(), "GIG_004", KindWrongState, 409},
		{"InvalidGig", ErrInvalidGig("bad"), "GIG_005", KindInvalidArgument, 400},
		{"OrderNotFound", ErrOrderNotFound(), "ORD_001", KindNotFound, 404},
		{"NotOrderBuyer", ErrNotOrderBuyer(), "ORD_002", KindUnauthorized, 403},
		{"NotOrderSeller", ErrNotOrderSeller(), "ORD_003", KindUnauthorized, 403},
		{"WrongState", ErrWrongState("PENDING"), "ORD_004", KindWrongState, 409},
		{"InvalidRating", ErrInvalidRating(), "ORD_005", KindInvalidArgument, 400},
		{"InvalidOrder", ErrInvalidOrder("bad"), "ORD_006", KindInvalidArgument, 400},
		{"NotAdmin", ErrNotAdmin(), "ADM_001", KindUnauthorized, 403},
		{"InvalidFee", ErrInvalidFee(), "ADM_002", KindInvalidArgument, 400},
		{"InvalidToken", ErrInvalidToken(), "AUTH_003", KindUnauthorized, 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Equal(t, tt.httpStatus, tt.err.HTTPStatus)
		})
	}
}

func TestWrongState_MentionsCurrentState(t *testing.T) {
	err := ErrWrongState("DELIVERED")
	assert.Contains(t, err.Message, "DELIVERED")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("outer: %w", ErrGigNotFound())))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(ErrRateLimitExceeded()))
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", ErrInsufficientAllowance())
	assert.True(t, Is(err, "LED_002"))
	assert.False(t, Is(err, "LED_001"))
	assert.False(t, Is(nil, "LED_001"))
}

func TestSystemErrors(t *testing.T) {
	inner := fmt.Errorf("pg: connection closed")
	err := InternalError(inner)
	assert.Equal(t, "SYS_001", err.Code)
	assert.Equal(t, 500, err.HTTPStatus)
	assert.Equal(t, KindInternal, err.Kind)

	assert.Equal(t, 429, ErrRateLimitExceeded().HTTPStatus)
	assert.Equal(t, "IDEM_001", ErrRequestInFlight().Code)
	assert.Equal(t, 409, ErrRequestInFlight().HTTPStatus)
	assert.Equal(t, 400, Validation("bad body").HTTPStatus)
}
