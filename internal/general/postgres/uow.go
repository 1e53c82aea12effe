package postgres

import (
	"context"
	"errors"

	"gogogo/internal/ports"

	"github.com/jackc/pgx/v5"
)

// ctxKey is an unexported key type for storing pgx.Tx in context.
type ctxKey struct{}

var txKey = ctxKey{}

// TxBeginner is the part of *pgxpool.Pool the unit of work needs.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

// unitOfWork coordinates transactional execution against a pgx pool.
type unitOfWork struct {
	pool TxBeginner
}

// NewUnitOfWork constructs a unitOfWork that is bound to the given pool.
func NewUnitOfWork(pool TxBeginner) ports.UnitOfWork {
	return &unitOfWork{pool: pool}
}

// WithinTx executes fn within a database transaction.
//   - If a transaction already exists in ctx, fn is executed within that tx.
//   - If fn returns an error, the transaction is rolled back and the error is returned.
//   - If fn panics, the transaction is rolled back and the panic is rethrown.
//   - On success, the transaction is committed.
func (uow *unitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}
	return uow.run(ctx, pgx.TxOptions{}, fn)
}

// WithinDetachedTx executes fn within a new read-only transaction even when ctx already
// carries one. The job path uses it so it never shares a session with the request path.
func (uow *unitOfWork) WithinDetachedTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return uow.run(context.WithValue(ctx, txKey, nil), pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (uow *unitOfWork) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) error {
	tx, err := uow.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	// rollback on panic, then rethrow
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, txKey, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return err
	}

	return tx.Commit(ctx)
}

// TxFromContext extracts the current pgx.Tx from ctx if present.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey).(pgx.Tx)
	return tx, ok && tx != nil
}

// MustTxFromContext returns the active pgx.Tx or an error if none is found.
func MustTxFromContext(ctx context.Context) (pgx.Tx, error) {
	if tx, ok := TxFromContext(ctx); ok {
		return tx, nil
	}
	return nil, errors.New("no transaction in context: call this repository within UnitOfWork")
}
