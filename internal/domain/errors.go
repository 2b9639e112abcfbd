package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAuthentication covers rejected credentials and expired or invalid tokens.
	ErrAuthentication = errors.New("authentication failed")
	// ErrForbidden is returned when the caller is authenticated but lacks permission.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates input rejected by the storefront API.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a duplicate email or username on registration.
	ErrConflict = errors.New("conflict")
	// ErrInsufficientStock is returned when a cart mutation exceeds inventory.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrNetwork indicates the request never produced a response.
	ErrNetwork = errors.New("network error")
	// ErrUnexpectedStatus covers any other non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected status")
)
