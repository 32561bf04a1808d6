package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"shop-data/internal/logging"
	"shop-data/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the shared handle every repository runs on. *pgxpool.Pool satisfies
// it in production.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// LockTimeout bounds how long locking writers wait for a row lock.
	// Zero leaves the server default in place.
	LockTimeout time.Duration
}

type base struct {
	db          DB
	log         *slog.Logger
	metrics     *metrics.Metrics
	lockTimeout time.Duration
}

func newBase(db DB, opts Options) base {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return base{
		db:          db,
		log:         log,
		metrics:     opts.Metrics,
		lockTimeout: opts.LockTimeout,
	}
}

// inTx runs fn between BEGIN and COMMIT. Any failure rolls back, is logged
// with the operation name and a transaction id, and is returned classified.
func (b *base) inTx(ctx context.Context, op string, fn func(tx pgx.Tx) error) error {
	defer b.metrics.ObserveOp(op, time.Now())

	log := b.log.With("op", op, "tx_id", uuid.NewString())

	tx, err := b.db.Begin(ctx)
	if err != nil {
		b.metrics.Tx(op, metrics.OutcomeRollback)
		log.Error("begin transaction failed", "err", err)
		return classify(fmt.Errorf("%s: begin transaction: %w", op, err))
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Error("rollback failed", "err", rbErr)
		}
		b.metrics.Tx(op, metrics.OutcomeRollback)
		err = classify(err)
		log.Warn("transaction rolled back", "kind", KindOf(err), "err", err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		b.metrics.Tx(op, metrics.OutcomeRollback)
		log.Error("commit failed", "err", err)
		return classify(fmt.Errorf("%s: commit transaction: %w", op, err))
	}

	b.metrics.Tx(op, metrics.OutcomeCommit)
	log.Debug("transaction committed")
	return nil
}

const setLockTimeoutSQL = `SELECT set_config('lock_timeout', $1, true)`

// setLockTimeout applies the configured lock_timeout to the current
// transaction only.
func (b *base) setLockTimeout(ctx context.Context, tx pgx.Tx) error {
	if b.lockTimeout <= 0 {
		return nil
	}
	ms := b.lockTimeout.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if _, err := tx.Exec(ctx, setLockTimeoutSQL, fmt.Sprintf("%dms", ms)); err != nil {
		return fmt.Errorf("set lock timeout: %w", err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validateInput(in any) error {
	if err := validate.Struct(in); err != nil {
		var validationErr validator.ValidationErrors
		if errors.As(err, &validationErr) {
			first := validationErr[0]
			return fmt.Errorf("%w: %s failed %q check", ErrInvalidInput, first.Field(), first.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern escapes LIKE metacharacters in s so it matches literally
// inside '%' || $n || '%'.
func containsPattern(s string) string {
	return likeEscaper.Replace(s)
}

func requireID(name string, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidInput, name)
	}
	return nil
}
