package postgres

import (
	"context"
	"errors"
	"net"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBObserver wraps a logical store operation; observability.Prom implements it.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type noopObserver struct{}

func (noopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

func observerOrNoop(o DBObserver) DBObserver {
	if o == nil {
		return noopObserver{}
	}
	return o
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// classify tags connectivity failures so the HTTP layer can answer 503, and
// constraint or range rejections so it can answer 400.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange:
			return errors.Join(apperr.ErrInvalidValue, err)
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(apperr.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Join(apperr.ErrStoreUnavailable, err)
	}

	return err
}
