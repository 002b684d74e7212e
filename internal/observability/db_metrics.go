package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times one logical store operation. A missing row is recorded as
// not_found and does not count as an error.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		status = "not_found"
	case err != nil:
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

var pgErrClasses = map[string]string{
	pgerrcode.UniqueViolation:      "unique_violation",
	pgerrcode.ForeignKeyViolation:  "foreign_key_violation",
	pgerrcode.CheckViolation:       "check_violation",
	pgerrcode.SerializationFailure: "serialization_failure",
	pgerrcode.DeadlockDetected:     "deadlock",
	pgerrcode.QueryCanceled:        "query_canceled",
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if class, ok := pgErrClasses[pgErr.Code]; ok {
			return class
		}
		return "pg_" + pgErr.Code
	}

	var connErr *pgconn.ConnectError
	switch {
	case errors.As(err, &connErr):
		return "connection"
	case pgconn.Timeout(err), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}
