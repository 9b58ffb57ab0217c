package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"workflowengine/services/executor"
)

// tracerName identifies this package's spans in whatever
// TracerProvider the host process configured.
const tracerName = "workflowengine"

// InstrumentedStep wraps an executor.Step with an OpenTelemetry span
// and a Prometheus duration observation per call, without altering the
// underlying Step's checkpointing behavior. Grounded on
// dshills-langgraph-go's OTelEmitter: one span per unit of work,
// attributes carrying the identifying labels, status set to error on
// failure.
type InstrumentedStep struct {
	Inner   executor.Step
	Metrics *Metrics
}

// Run executes name through the wrapped Step inside a span, recording
// its duration and outcome.
func (s InstrumentedStep) Run(ctx context.Context, name string, thunk func(ctx context.Context) (any, error)) (any, error) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "step.Run", trace.WithAttributes(attribute.String("step.name", name)))
	defer span.End()

	start := time.Now()
	result, err := s.Inner.Run(ctx, name, thunk)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	if s.Metrics != nil {
		s.Metrics.RecordStepDuration(name, outcome, elapsed)
	}

	return result, err
}
