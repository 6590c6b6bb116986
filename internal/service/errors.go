// Package service provides the business operations of the Tienda order ledger.
package service

import (
	"errors"
	"fmt"
)

// Common service errors.
var (
	// Validation errors. All of them wrap ErrInvalidInput.
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingName     = fmt.Errorf("%w: name is required", ErrInvalidInput)
	ErrMissingEmail    = fmt.Errorf("%w: email is required", ErrInvalidInput)
	ErrMissingPassword = fmt.Errorf("%w: password is required", ErrInvalidInput)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidInput)
	ErrInvalidItemID   = fmt.Errorf("%w: item id must be an integer", ErrInvalidInput)
	ErrMissingUser     = fmt.Errorf("%w: an authenticated user is required", ErrInvalidInput)

	// User errors
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyRegistered = errors.New("email already registered")

	// Order errors
	ErrItemNotFound  = errors.New("item not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrOrderFailed   = errors.New("order could not be placed")

	// General errors
	ErrInternalError = errors.New("internal error")
)
