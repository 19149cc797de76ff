package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"relief/pkg/platform/sentinel"
)

// Category messages are the only store-derived text callers ever see.
const (
	MsgConflict    = "Request conflicts with existing data"
	MsgReference   = "Referenced record does not exist"
	MsgUnavailable = "Service temporarily unavailable"
)

// Error is a classified store failure. It matches its sentinel with errors.Is
// and keeps the driver error for logging.
type Error struct {
	Sentinel  error
	Retryable bool
	Message   string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() []error { return []error{e.Sentinel, e.Err} }

// IsRetryable reports whether err is a classified failure worth another attempt.
func IsRetryable(err error) bool {
	var dbErr *Error
	return errors.As(err, &dbErr) && dbErr.Retryable
}

// Postgres SQLSTATE codes the classifier distinguishes.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgTooManyConnections   = "53300"
	pgAdminShutdown        = "57P01"
	pgCannotConnectNow     = "57P03"
)

// Classify converts driver errors into *Error. Errors it does not recognize are
// returned unchanged so they surface as internal failures.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPostgres(pgErr, err)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return classifySQLite(liteErr, err)
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connectErr),
		errors.As(err, &netErr),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded):
		return unavailable(err)
	}
	return err
}

func classifyPostgres(pgErr *pgconn.PgError, err error) error {
	switch pgErr.Code {
	case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
		return &Error{Sentinel: sentinel.ErrConflict, Retryable: true, Message: MsgConflict, Err: err}
	case pgForeignKeyViolation:
		return &Error{Sentinel: sentinel.ErrConflict, Message: MsgReference, Err: err}
	case pgTooManyConnections, pgAdminShutdown, pgCannotConnectNow:
		return unavailable(err)
	}
	// Class 08 is connection exception.
	if len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" {
		return unavailable(err)
	}
	return err
}

func classifySQLite(liteErr *sqlite.Error, err error) error {
	code := liteErr.Code()
	switch code {
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return &Error{Sentinel: sentinel.ErrConflict, Message: MsgReference, Err: err}
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return &Error{Sentinel: sentinel.ErrConflict, Retryable: true, Message: MsgConflict, Err: err}
	}
	// Primary result code lives in the low byte of an extended code.
	switch code & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return &Error{Sentinel: sentinel.ErrConflict, Retryable: true, Message: MsgConflict, Err: err}
	case sqlite3.SQLITE_CONSTRAINT:
		// Without extended codes the constraint kind is only in the message.
		msg := liteErr.Error()
		switch {
		case strings.Contains(msg, "FOREIGN KEY"):
			return &Error{Sentinel: sentinel.ErrConflict, Message: MsgReference, Err: err}
		case strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "PRIMARY KEY"):
			return &Error{Sentinel: sentinel.ErrConflict, Retryable: true, Message: MsgConflict, Err: err}
		}
		return &Error{Sentinel: sentinel.ErrConflict, Message: MsgConflict, Err: err}
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY:
		return unavailable(err)
	}
	return err
}

func unavailable(err error) error {
	return &Error{Sentinel: sentinel.ErrUnavailable, Message: MsgUnavailable, Err: err}
}
