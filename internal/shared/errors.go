package shared

import "errors"

var (
	// ErrNotFound indicates a missing entity (by id, email or token).
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates malformed or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicate indicates a unique constraint such as email was violated.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized indicates a missing, invalid or revoked token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a role or ownership violation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidOrExpiredToken is returned when a password reset token does not
	// match or has expired.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	// ErrInsufficientStock indicates a sale asked for more than the product stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// UserSafeMessage returns the message that may be shown to API clients.
// Unknown errors collapse to a generic message so internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidOrExpiredToken),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrIdempotencyConflict):
		return err.Error()
	default:
		return "internal server error"
	}
}
