package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domerrors "registrar/pkg/domain-errors"
	txcontext "registrar/pkg/platform/tx"
	"registrar/pkg/requestcontext"
)

const defaultTxTimeout = 10 * time.Second

// TxRunner provides the transactional boundary for service-level units of
// work. The transaction is carried through context so every store joined in
// the callback shares it.
type TxRunner struct {
	db          *sql.DB
	lockTimeout time.Duration
	timeout     time.Duration
}

// NewTxRunner builds a runner. lockTimeout bounds row-lock waits inside the
// transaction; zero disables the bound (not recommended outside tests).
func NewTxRunner(db *sql.DB, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{db: db, lockTimeout: lockTimeout}
}

// RunInTx executes fn inside a single database transaction. The callback
// context carries the open *sql.Tx; any error rolls the whole unit back.
func (r *TxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return domerrors.Wrap(err, domerrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := r.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if r.lockTimeout > 0 {
		// SET LOCAL scopes the bound to this transaction only. Expiry surfaces
		// as SQLSTATE 55P03, which the counter store maps to a retryable
		// contention error.
		timeoutMS := r.lockTimeout.Milliseconds()
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeoutMS)); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	// Period-reset decisions must read the database clock, not the app node's.
	// With several nodes straddling a year boundary, per-request wall clocks
	// would flip the counter between periods and re-issue starting sequences;
	// one clock source makes every node agree on the period.
	var dbNow time.Time
	if err := tx.QueryRowContext(ctx, "SELECT now()").Scan(&dbNow); err != nil {
		return fmt.Errorf("read transaction clock: %w", err)
	}
	ctx = requestcontext.WithTime(ctx, dbNow)

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
