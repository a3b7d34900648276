package reflection

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/journald/internal/reflection"

// Operation names, used for span names and metric attributes.
const (
	opList   = "list"
	opCreate = "create"
	opDelete = "delete"
)

// instruments holds the tracer and counters shared by every Store implementation.
type instruments struct {
	backend string
	tracer  trace.Tracer
	meter   metric.Meter
	ops     metric.Int64Counter
	logger  *zap.Logger
}

func newInstruments(backend string, logger *zap.Logger) *instruments {
	logger = logger.With(zap.String("backend", backend))
	in := &instruments{
		backend: backend,
		tracer:  otel.Tracer(instrumentationName),
		meter:   otel.Meter(instrumentationName),
		logger:  logger,
	}

	var err error
	in.ops, err = in.meter.Int64Counter(
		"journal.reflection.operations_total",
		metric.WithDescription("Total reflection store operations labeled by operation, backend and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		logger.Warn("failed to create operations counter", zap.Error(err))
	}

	return in
}

// start opens a span for op.
func (in *instruments) start(ctx context.Context, op string) (context.Context, trace.Span) {
	return in.tracer.Start(ctx, "reflection."+op,
		trace.WithAttributes(attribute.String("backend", in.backend)))
}

// end records the outcome of op on span and the operations counter, then ends span.
func (in *instruments) end(ctx context.Context, span trace.Span, op string, err error) {
	defer span.End()

	outcome := outcomeOf(err)
	if err != nil && outcome != "rejected" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if in.ops != nil {
		in.ops.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", op),
			attribute.String("backend", in.backend),
			attribute.String("outcome", outcome),
		))
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "rejected"
	default:
		return "error"
	}
}
