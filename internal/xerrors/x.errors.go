package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func ParsePGErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// Registration / Login
var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIINRequired        = errors.New("iin required")
	ErrPhoneRequired      = errors.New("phone required")
	ErrPasswordRequired   = errors.New("password required")
)

// Verification
var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// Balance / goals
var (
	ErrGoalNotFound      = errors.New("goal not found")
	ErrBalanceNotFound   = errors.New("balance not found")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrRelativeNotFound  = errors.New("relative not found")
	ErrDuplicateIIN      = errors.New("iin already registered")
	ErrDuplicateTransfer = errors.New("transaction already recorded")
)

// Monitoring
var (
	ErrMonitorNotRunning  = errors.New("email monitoring is not running")
	ErrInvalidInterval    = errors.New("interval must be a positive number of seconds")
	ErrMailboxUnavailable = errors.New("mailbox unavailable")
)
