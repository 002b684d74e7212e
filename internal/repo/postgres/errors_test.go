package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/geocoder89/storehub/internal/apperr"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	for _, code := range []string{pgerrcode.CheckViolation, pgerrcode.NumericValueOutOfRange} {
		err := classify(&pgconn.PgError{Code: code})
		assert.ErrorIs(t, err, apperr.ErrInvalidValue, code)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), code)
	}

	unique := classify(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
	assert.NotErrorIs(t, unique, apperr.ErrInvalidValue)
	assert.True(t, isUniqueViolation(unique))

	assert.ErrorIs(t, classify(context.DeadlineExceeded), apperr.ErrStoreUnavailable)

	boom := errors.New("boom")
	assert.Same(t, boom, classify(boom))
}
