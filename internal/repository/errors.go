package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicate          = errors.New("duplicate resource")
	ErrInvalidInput       = errors.New("invalid input data")
	ErrForeignKey         = errors.New("referenced resource does not exist")
	ErrNotEnough          = errors.New("not enough quantity available")
	ErrNotSeller          = errors.New("user is not a seller")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLockTimeout        = errors.New("timed out waiting for lock")
	ErrConflict           = errors.New("concurrent update conflict")
	ErrUnavailable        = errors.New("database unavailable")
)

// ErrorKind names the class of a repository error for callers that map
// failures to responses.
type ErrorKind string

const (
	KindNone             ErrorKind = ""
	KindInvalidInput     ErrorKind = "invalid_input"
	KindNotFound         ErrorKind = "not_found"
	KindDuplicate        ErrorKind = "duplicate"
	KindInvalidReference ErrorKind = "invalid_reference"
	KindNotEnough        ErrorKind = "not_enough"
	KindForbidden        ErrorKind = "forbidden"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindLockTimeout      ErrorKind = "lock_timeout"
	KindConflict         ErrorKind = "conflict"
	KindUnavailable      ErrorKind = "unavailable"
	KindInternal         ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrNotFound, KindNotFound},
	{ErrDuplicate, KindDuplicate},
	{ErrForeignKey, KindInvalidReference},
	{ErrNotEnough, KindNotEnough},
	{ErrNotSeller, KindForbidden},
	{ErrInvalidCredentials, KindUnauthorized},
	{ErrLockTimeout, KindLockTimeout},
	{ErrConflict, KindConflict},
	{ErrUnavailable, KindUnavailable},
}

// KindOf classifies err. It returns KindNone for nil and KindInternal for
// errors that carry none of the sentinels above.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeNotNullViolation     = "23502"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// classify joins a sentinel onto driver errors so callers can use errors.Is
// without losing the original error. Already classified errors pass through.
func classify(err error) error {
	if err == nil || KindOf(err) != KindInternal {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s: %w", ErrDuplicate, pgErr.ConstraintName, err)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s: %w", ErrForeignKey, pgErr.ConstraintName, err)
		case codeCheckViolation, codeNotNullViolation:
			return fmt.Errorf("%w: %s: %w", ErrInvalidInput, pgErr.ConstraintName, err)
		case codeLockNotAvailable:
			return fmt.Errorf("%w: %w", ErrLockTimeout, err)
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	return err
}
