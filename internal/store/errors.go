package store

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// TransientError wraps a store failure worth retrying: connection loss,
// serialization conflicts, resource pressure.
type TransientError struct {
	cause error
}

func (e *TransientError) Error() string { return "transient store error: " + e.cause.Error() }
func (e *TransientError) Unwrap() error { return e.cause }

// ConstraintError wraps an unexpected constraint or check violation. The
// (market_id, exchange) unique key never raises one because every write
// goes through ON CONFLICT; anything that does arrive here is permanent.
type ConstraintError struct {
	Code       string
	Constraint string
	cause      error
}

func (e *ConstraintError) Error() string {
	msg := "constraint violation (" + e.Code + " " + e.Constraint + ")"
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}
func (e *ConstraintError) Unwrap() error { return e.cause }

// classify maps a raw pgx error into the store taxonomy. Context errors
// pass through untouched so deadline handling stays with the caller.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection exceptions
			return &TransientError{cause: err}
		case strings.HasPrefix(pgErr.Code, "40"): // serialization failure, deadlock
			return &TransientError{cause: err}
		case strings.HasPrefix(pgErr.Code, "53"): // insufficient resources
			return &TransientError{cause: err}
		case pgErr.Code == "57P03": // cannot_connect_now
			return &TransientError{cause: err}
		case strings.HasPrefix(pgErr.Code, "23"): // integrity violations
			return &ConstraintError{Code: pgErr.Code, Constraint: pgErr.ConstraintName, cause: err}
		default:
			return err
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) || pgconn.SafeToRetry(err) {
		return &TransientError{cause: err}
	}

	return err
}

// isTransient reports whether the classified error should be retried.
func isTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
