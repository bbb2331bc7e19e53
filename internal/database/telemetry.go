package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/irfndi/ratepulse/internal/database"

// TracedPool wraps a DatabasePool and records a client span per query.
type TracedPool struct {
	pool   DatabasePool
	tracer trace.Tracer
}

// NewTracedPool wraps pool. A nil tracer uses the global provider.
func NewTracedPool(pool DatabasePool, tracer trace.Tracer) *TracedPool {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	return &TracedPool{pool: pool, tracer: tracer}
}

// Query executes a query inside a span. The span covers the round trip,
// not row iteration.
func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := p.tracer.Start(ctx, "db.query",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", compactSQL(sql)),
		),
	)
	defer span.End()

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		RecordDatabaseError(span, err)
	}
	return rows, err
}

// RecordDatabaseError marks the span as failed.
func RecordDatabaseError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
