package apperror

import (
	"errors"
	"fmt"
)

// AppError is a structured, coded error for expected engine conditions.
// Every business failure the engine can report carries a stable code so the
// calling chat layer can branch on it without string matching.
type AppError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Err     error  `json:"-"` // Wrapped internal cause (not exposed to callers)
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

// Is matches AppErrors by code, so errors.Is works against the constructor
// values below.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of err if it is (or wraps) an AppError, else "".
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// ---- Ledger (LED) ----

func ErrInsufficientPoints() *AppError {
	return New("LED_001", "Insufficient points balance")
}

func ErrInvalidAmount() *AppError {
	return New("LED_002", "Amount must be a positive number of points")
}

func ErrAccountNotFound() *AppError {
	return New("LED_003", "Account not found")
}

// ---- Reward catalog (CAT) ----

func ErrRewardNotFound() *AppError {
	return New("CAT_001", "Reward not found")
}

func ErrOutOfStock() *AppError {
	return New("CAT_002", "Reward is out of stock")
}

// ---- Voucher pool (VCH) ----

func ErrVoucherExhausted() *AppError {
	return New("VCH_001", "No voucher codes left for this reward")
}

// ---- Infrastructure (SYS) ----

// InternalError wraps a storage or infrastructure fault. These propagate to
// the caller unchanged; the engine never retries them itself.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal engine error", err)
}
