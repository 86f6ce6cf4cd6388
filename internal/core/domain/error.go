package domain

import (
	"errors"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrOrderNotFound     = errors.New("order not found")
	ErrConflictingData   = errors.New("data conflicts with existing data in unique column")
	ErrStoreUnavailable  = errors.New("order store unavailable")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrUnsupportedMethod = errors.New("payment method is not supported")

	// * Communication errors.
	ErrBadRequest       = errors.New("error parsing request")
	ErrInvalidSignature = errors.New("event signature is invalid")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrForbidden                  = errors.New("user is forbidden to access the resource")

	// * Business errors.
	ErrAlreadyTerminal         = errors.New("order payment is already settled")
	ErrPayloadGenerationFailed = errors.New("payable payload could not be generated")
)
