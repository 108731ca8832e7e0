package accounts

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// Text codes attached to rich errors so API consumers can branch without
// string matching the detail message.
const (
	TextCodeRegistrationClosed = "REGISTRATION_CLOSED"
	TextCodeObserverRejected   = "OBSERVER_REJECTED"
	TextCodeResetInfoInvalid   = "RESET_INFO_INVALID"
	TextCodeAccountBlocked     = "ACCOUNT_BLOCKED"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	TextCodeDeliveryFailed     = "DELIVERY_FAILED"
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can not be an empty string")

// ErrMismatchedHashAndPassword is returned when a password check fails
var ErrMismatchedHashAndPassword = errors.New("mismatched hash and password")

// ErrUnableToFindSession is the error when a request carries no session token
var ErrUnableToFindSession = errors.New("unable to find session")

// ErrUnableToDecodeSession unable to decode JWT from the request
var ErrUnableToDecodeSession = errors.New("unable to decode session")

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = errors.New("unable to map claims")

// NewInvalidRequestError flags malformed or missing input
func NewInvalidRequestError(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryBadInput).
		WithCode(goerrors.CodeBadRequest)
}

// NewForbiddenError flags an actor the policy does not allow
func NewForbiddenError(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryAuth).
		WithCode(goerrors.CodeForbidden)
}

// NewNotFoundError flags a missing account. The HTTP boundary reports these
// as unprocessable so responses do not confirm whether an account exists.
func NewNotFoundError(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryNotFound).
		WithTextCode(TextCodeAccountNotFound)
}

// NewUnprocessableError flags input that is well formed but fails a
// business rule
func NewUnprocessableError(msg string) *goerrors.Error {
	return goerrors.New(msg, goerrors.CategoryValidation)
}

// NewObserverError wraps an observer veto so the boundary reports a 400
func NewObserverError(err error, event LifecycleEventName) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, "operation rejected by a lifecycle observer").
		WithTextCode(TextCodeObserverRejected).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"event": event})
}

// NewDeliveryError wraps a notification transport failure
func NewDeliveryError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryValidation,
		"unable to send email, contact the site administrator if the problem persists").
		WithTextCode(TextCodeDeliveryFailed)
}

// HTTPStatusFromError maps rich error categories to the status codes the
// resource endpoints respond with. Not-found deliberately maps to 422.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return router.StatusOK
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return router.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryBadInput, goerrors.CategoryOperation:
		return router.StatusBadRequest
	case goerrors.CategoryAuth:
		return router.StatusForbidden
	case goerrors.CategoryValidation, goerrors.CategoryNotFound, goerrors.CategoryConflict:
		return router.StatusUnprocessableEntity
	default:
		return router.StatusInternalServerError
	}
}

// IsNotFoundError reports whether err carries the not-found category
func IsNotFoundError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryNotFound
}

// IsUnprocessableError reports whether err carries the validation category
func IsUnprocessableError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryValidation
}

// IsObserverRejection reports whether err was raised by a vetoing observer
func IsObserverRejection(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == TextCodeObserverRejected
}
