package common

import (
	"errors"
	"net/http"
)

// Canonical machine-readable error codes returned by the API. Clients key on
// these; messages are for humans and may change.
const (
	CodeCartNotFound      = "CART_NOT_FOUND"
	CodeItemNotFound      = "ITEM_NOT_FOUND"
	CodePromoNotFound     = "PROMO_NOT_FOUND"
	CodeUnitMismatch      = "UNIT_MISMATCH"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeOutOfStock        = "OUT_OF_STOCK"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeItemNotInCart     = "ITEM_NOT_IN_CART"
	CodeInvalidPromoCode  = "INVALID_PROMO_CODE"
	CodeEmptyCart         = "EMPTY_CART"
	CodeBadRequest        = "BAD_REQUEST"
	CodeInternal          = "INTERNAL"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// NotFoundError builds a 404 AppError with the given code.
func NotFoundError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusNotFound}
}

// ValidationError builds a 422 AppError with the given code.
func ValidationError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: http.StatusUnprocessableEntity}
}

// InternalError wraps an unexpected failure. The original error is retained
// for logging but never serialized to clients.
func InternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
