package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/richxcame/fare-engine/pkg/resilience"
)

// Querier is the part of pgxpool.Pool and pgx.Tx the repositories use
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner starts transactions
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RetryConfig is the retry policy for database calls
func RetryConfig() resilience.RetryConfig {
	config := resilience.DefaultRetryConfig()
	config.MaxAttempts = 3
	config.InitialBackoff = 100 * time.Millisecond
	config.MaxBackoff = 2 * time.Second
	config.RetryableChecker = IsRetryable
	return config
}

// RetryableQuery runs a multi-row query and scans it, retrying transient failures
func RetryableQuery[T any](ctx context.Context, q Querier, query string, args []any, scanner func(pgx.Rows) (T, error)) (T, error) {
	return resilience.Do(ctx, RetryConfig(), nil, "database.query", func(ctx context.Context) (T, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			var zero T
			return zero, err
		}
		defer rows.Close()

		return scanner(rows)
	})
}

// RetryableQueryRow runs a single-row query and scans it, retrying transient failures
func RetryableQueryRow[T any](ctx context.Context, q Querier, query string, args []any, scanner func(pgx.Row) (T, error)) (T, error) {
	return resilience.Do(ctx, RetryConfig(), nil, "database.query_row", func(ctx context.Context) (T, error) {
		return scanner(q.QueryRow(ctx, query, args...))
	})
}

// RetryableTransaction runs fn inside a transaction, retrying the whole
// transaction on serialization failures and deadlocks.
func RetryableTransaction(ctx context.Context, db TxBeginner, fn func(pgx.Tx) error) error {
	config := RetryConfig()
	config.InitialBackoff = 50 * time.Millisecond
	config.MaxBackoff = time.Second

	_, err := resilience.Do(ctx, config, nil, "database.transaction", func(ctx context.Context) (struct{}, error) {
		tx, err := db.Begin(ctx)
		if err != nil {
			return struct{}{}, err
		}

		if err := fn(tx); err != nil {
			_ = tx.Rollback(ctx)
			return struct{}{}, err
		}

		return struct{}{}, tx.Commit(ctx)
	})
	return err
}

// Postgres error codes worth another attempt
var retryableCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"53000": true, // insufficient_resources
	"53300": true, // too_many_connections
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
}

var retryableMessages = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"network is unreachable",
	"too many connections",
	"server closed",
	"unexpected eof",
}

// IsRetryable reports whether a PostgreSQL error is transient
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, pgx.ErrNoRows) {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return retryableCodes[pgErr.Code]
	}

	errMsg := strings.ToLower(err.Error())
	for _, msg := range retryableMessages {
		if strings.Contains(errMsg, msg) {
			return true
		}
	}

	return false
}
