package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Gateway errors
	ErrGatewayNotConfigured = errors.New("no active configuration for gateway")
	ErrNoDefaultGateway     = errors.New("no default gateway configured")
	ErrUnsupportedGateway   = errors.New("unsupported gateway kind")
	ErrDecryptFailed        = errors.New("failed to decrypt credential")
	ErrSignatureInvalid     = errors.New("webhook signature invalid")

	// Lifecycle errors
	ErrDuplicateSubscription = errors.New("user already has a live subscription")
	ErrPlanNotFound          = errors.New("subscription plan not found")
	ErrInvalidTransition     = errors.New("invalid status transition")
)
