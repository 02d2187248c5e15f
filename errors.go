package identity

import (
	"strings"

	"github.com/goliatone/go-errors"
)

// Text codes surfaced in JSON error payloads. Clients branch on these, so
// they are part of the public contract.
const (
	TextCodeValidation       = "VALIDATION_ERROR"
	TextCodeDuplicateEmail   = "DUPLICATE_EMAIL"
	TextCodeInvalidUser      = "INVALID_CREDENTIALS"
	TextCodeAccountInactive  = "ACCOUNT_INACTIVE"
	TextCodeMissingToken     = "MISSING_AUTH_TOKEN"
	TextCodeTokenExpired     = "TOKEN_EXPIRED"
	TextCodeTokenMalformed   = "INVALID_TOKEN"
	TextCodeTokenSignature   = "INVALID_SIGNATURE"
	TextCodeTokenStructure   = "INVALID_TOKEN_STRUCTURE"
	TextCodeForbidden        = "INSUFFICIENT_PERMISSIONS"
	TextCodeUserNotFound     = "USER_NOT_FOUND"
	TextCodePersistence      = "PERSISTENCE_ERROR"
)

// ErrNoEmptyString rejects empty inputs to the hasher
var ErrNoEmptyString = errors.New("value must not be an empty string", errors.CategoryBadInput)

// ErrMismatchedHashAndPassword is the generic credential failure. Both the
// unknown-email and wrong-password paths return exactly this value so the
// response cannot be used to enumerate accounts.
var ErrMismatchedHashAndPassword = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidUser).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrAccountInactive is returned when credentials are fine but the account
// has been deactivated
var ErrAccountInactive = errors.New("account inactive", errors.CategoryAuth).
	WithTextCode(TextCodeAccountInactive).
	WithCode(errors.CodeUnauthorized)

// ErrDuplicateEmail maps the store's unique constraint violation
var ErrDuplicateEmail = errors.New("email is already registered", errors.CategoryConflict).
	WithTextCode(TextCodeDuplicateEmail).
	WithCode(errors.CodeConflict)

// ErrMissingToken is returned when no token could be extracted from a request
var ErrMissingToken = errors.New("missing authorization token", errors.CategoryAuth).
	WithTextCode(TextCodeMissingToken).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for structurally valid tokens past their expiry
var ErrTokenExpired = errors.New("token has expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed covers tokens that cannot be parsed at all
var ErrTokenMalformed = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenSignature covers tokens whose signature does not verify
var ErrTokenSignature = errors.New("invalid token signature", errors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenStructure covers verified tokens missing the uid or role claims
var ErrTokenStructure = errors.New("invalid token structure", errors.CategoryAuth).
	WithTextCode(TextCodeTokenStructure).
	WithCode(errors.CodeUnauthorized)

// ErrInsufficientPermissions is returned when the decoded role is not in
// the route's allow-list
var ErrInsufficientPermissions = errors.New("insufficient permissions for this resource", errors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(errors.CodeForbidden)

// NewValidationError wraps field-level validation messages into a single
// rich error; fields holds every violated rule, not just the first.
func NewValidationError(fields map[string]any) *errors.Error {
	return errors.New("validation failed", errors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(errors.CodeBadRequest).
		WithMetadata(fields)
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation detects the driver-specific unique constraint errors we
// care about: sqlite and postgres wordings for the users.email index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
