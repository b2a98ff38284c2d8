package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	connKey contextKey = "sql_conn"
	txKey   contextKey = "sql_tx"
)

// SessionMiddleware pins one *sql.Conn to each request and returns it to the
// pool when the handler finishes, on every path.
func SessionMiddleware(db *sql.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			conn, err := db.Conn(ctx)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Close()

			c.SetRequest(c.Request().WithContext(context.WithValue(ctx, connKey, conn)))
			return next(c)
		}
	}
}

// ConnFromContext returns the request connection, if any.
func ConnFromContext(ctx context.Context) *sql.Conn {
	conn, _ := ctx.Value(connKey).(*sql.Conn)
	return conn
}

// TxFromContext returns the open transaction, if any.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey).(*sql.Tx)
	return tx
}

// From returns the open transaction, then the request connection, then db.
func From(ctx context.Context, db *sql.DB) DBTX {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := ConnFromContext(ctx); c != nil {
		return c
	}
	return db
}

// TxRunner runs fn inside a single transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Transactor runs functions inside a database/sql transaction.
type Transactor struct {
	db *sql.DB
}

func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// InTx commits when fn returns nil and rolls back before returning any error.
// Nested calls join the outer transaction.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	var (
		tx  *sql.Tx
		err error
	)
	if c := ConnFromContext(ctx); c != nil {
		tx, err = c.BeginTx(ctx, nil)
	} else {
		tx, err = t.db.BeginTx(ctx, nil)
	}
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return Classify(err)
	}
	return nil
}
