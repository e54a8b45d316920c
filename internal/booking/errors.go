package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/store"
)

var (
	// ErrNotFound is returned when a referenced guest, room, bed or booking does not exist.
	ErrNotFound = store.ErrNotFound
	// ErrInvalidInput wraps every request validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrArchived is returned when a request targets an archived guest or resource.
	ErrArchived = errors.New("entity is archived")
)

// RejectionError carries a business rejection from the allocation rules.
type RejectionError struct {
	Reason    allocation.Reason
	Conflicts []string
}

func (e *RejectionError) Error() string {
	if len(e.Conflicts) == 0 {
		return e.Reason.Message()
	}
	return fmt.Sprintf("%s (bookings: %s)", e.Reason.Message(), strings.Join(e.Conflicts, ", "))
}

func rejected(reason allocation.Reason, conflicts []string) error {
	return &RejectionError{Reason: reason, Conflicts: conflicts}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Postgres SQLSTATE codes the service reacts to.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeExclusionViolation   = "23P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func retryable(err error) bool {
	code := pgCode(err)
	return code == codeSerializationFailure || code == codeDeadlockDetected
}

// translate maps storage-level failures onto service errors. An exclusion
// violation means the database caught an overlap the application missed.
func translate(err error) error {
	if pgCode(err) == codeExclusionViolation {
		return rejected(allocation.ReasonOverlap, nil)
	}
	return err
}
