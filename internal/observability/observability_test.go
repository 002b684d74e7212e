package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/geocoder89/storehub/internal/actorctx"
	"github.com/geocoder89/storehub/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func TestObserveDB_CountsErrorsByClass(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	require.NoError(t, p.ObserveDB("users.get_by_id", func() error { return nil }))

	err := p.ObserveDB("users.get_by_id", func() error { return pgx.ErrNoRows })
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Equal(t, 0, testutil.CollectAndCount(p.DbErrorsTotal), "a miss is not a db error")

	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	_ = p.ObserveDB("users.create", func() error { return dup })

	assert.Equal(t, 1.0, testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")))
}

func TestClassifyDBErr(t *testing.T) {
	assert.Equal(t, "deadlock", classifyDBErr(&pgconn.PgError{Code: "40P01"}))
	assert.Equal(t, "pg_22001", classifyDBErr(&pgconn.PgError{Code: "22001"}))
	assert.Equal(t, "check_violation", classifyDBErr(&pgconn.PgError{Code: "23514"}))
	assert.Equal(t, "timeout", classifyDBErr(fmt.Errorf("query: %w", context.DeadlineExceeded)))
	assert.Equal(t, "canceled", classifyDBErr(context.Canceled))
	assert.Equal(t, "unknown", classifyDBErr(errors.New("boom")))
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, samplerFor(0.5).Description(), "TraceIDRatioBased{0.5}")
}

func TestPromObservers(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveAuth("login", "ok")
	p.ObserveAuth("login", "ok")
	p.ObserveRateLimited("login")
	p.ObserveCache("products_list", "hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(p.AuthEvents.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.RateLimited.WithLabelValues("login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.CacheResults.WithLabelValues("products_list", "hit")))
}

func TestLogger_AddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "dev")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	ctx = actorctx.WithUser(ctx, user.User{ID: 42})

	log.InfoContext(ctx, "hello", "k", "v")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, traceID.String(), rec["trace_id"])
	assert.Equal(t, spanID.String(), rec["span_id"])
	assert.Equal(t, 42.0, rec["actor_id"])

	buf.Reset()
	log.Debug("no span")

	var plain map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &plain))
	assert.NotContains(t, plain, "trace_id")
	assert.NotContains(t, plain, "actor_id")
}
