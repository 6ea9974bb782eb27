package users

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
)

var (
	// ErrUnauthorized is the generic guard rejection. The guard never
	// tells the caller which check failed.
	ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuth).
			WithTextCode("UNAUTHORIZED").
			WithCode(errors.CodeUnauthorized)

	// ErrTokenMissingOrMalformed covers an absent or unparseable
	// Authorization header.
	ErrTokenMissingOrMalformed = errors.New("missing or malformed token", errors.CategoryAuth).
					WithTextCode("TOKEN_MISSING_MALFORMED").
					WithCode(errors.CodeUnauthorized)

	// ErrTokenExpired is returned when a token fails validation only
	// because its expiry has passed.
	ErrTokenExpired = errors.New("authentication token is expired", errors.CategoryAuth).
			WithTextCode("TOKEN_EXPIRED").
			WithCode(errors.CodeUnauthorized)

	// ErrTokenMalformed covers every other token validation failure.
	ErrTokenMalformed = errors.New("authentication token is malformed or invalid", errors.CategoryAuth).
				WithTextCode("TOKEN_MALFORMED").
				WithCode(errors.CodeUnauthorized)

	// ErrInvalidCredentials is returned for unknown email, passwordless
	// account, and wrong password alike so that sign in failures are
	// indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
				WithTextCode("INVALID_CREDENTIALS").
				WithCode(errors.CodeUnauthorized)

	// ErrAccountInactive rejects sign in for deactivated accounts that
	// presented the correct password.
	ErrAccountInactive = errors.New("account is inactive", errors.CategoryAuth).
				WithTextCode("ACCOUNT_INACTIVE").
				WithCode(errors.CodeUnauthorized)

	// ErrInvalidRecoveryToken rejects a change-password attempt whose
	// token verified but cannot be redeemed: wrong token type, unknown
	// subject, or an already consumed ledger entry.
	ErrInvalidRecoveryToken = errors.New("invalid recovery token", errors.CategoryBadInput).
				WithTextCode("RECOVERY_TOKEN_INVALID").
				WithCode(errors.CodeBadRequest)

	// ErrPasswordMismatch rejects a password change where the
	// confirmation does not match.
	ErrPasswordMismatch = errors.New("passwords do not match", errors.CategoryValidation).
				WithTextCode("PASSWORD_MISMATCH").
				WithCode(errors.CodeBadRequest)

	// ErrEmailTaken translates a unique constraint violation on create.
	ErrEmailTaken = errors.New("email is already registered", errors.CategoryConflict).
			WithTextCode("EMAIL_TAKEN").
			WithCode(errors.CodeConflict)
)

// InternalErrorMessage replaces the message of any 5xx error on the
// wire. The original error is logged, never surfaced.
const InternalErrorMessage = "Unexpected error, please contact the administrator"

// WireError is the JSON error envelope every failed request returns.
type WireError struct {
	StatusCode int    `json:"statusCode"`
	Timestamp  string `json:"timestamp"`
	Path       string `json:"path"`
	Message    string `json:"message"`
}

// NewErrorHandler builds the fiber error handler that translates rich
// errors into the wire envelope. Anything that maps to a 5xx gets its
// message swapped for InternalErrorMessage and the cause logged.
func NewErrorHandler(logger Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = defLogger{}
	}

	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := InternalErrorMessage

		var richErr *errors.Error
		var fiberErr *fiber.Error

		switch {
		case isContextTimeout(err):
			// checked before the rich-error case: command handlers
			// wrap ctx.Err() and the wrap would otherwise map to 500
			status = fiber.StatusRequestTimeout
			message = "request timed out"
		case errors.As(err, &richErr):
			status = statusFromError(richErr)
			message = richErr.Message
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
			message = fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			message = InternalErrorMessage
			logger.Error("request failed", "path", c.Path(), "status", status, "error", err)
		} else {
			logger.Debug("request rejected", "path", c.Path(), "status", status, "error", err)
		}

		return c.Status(status).JSON(WireError{
			StatusCode: status,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Path:       c.Path(),
			Message:    message,
		})
	}
}

func statusFromError(err *errors.Error) int {
	if err.Code >= 400 && err.Code < 600 {
		return int(err.Code)
	}

	switch err.Category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	case errors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

func isContextTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// IsUniqueViolation reports whether err is a unique constraint
// violation. The repository layer maps driver errors into rich errors
// carrying a DUPLICATE_KEY text code, so check that first; raw driver
// errors fall back to the messages postgres and sqlite produce.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		if richErr.TextCode == "DUPLICATE_KEY" || richErr.Category == "database_duplicate" {
			return true
		}
		if richErr.Source != nil && isUniqueViolationMessage(richErr.Source.Error()) {
			return true
		}
	}

	return isUniqueViolationMessage(err.Error())
}

func isUniqueViolationMessage(msg string) bool {
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
