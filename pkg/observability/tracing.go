package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewTracerProvider builds and installs the process-wide TracerProvider
// that InstrumentedStep's spans are recorded against. Grounded on
// smilemakc-mbflow's tracing.Provider, narrowed to the always-sample,
// exporter-less setup: this engine has no OTLP collector configured in
// v1, so spans are created and sampled but not batched to a backend,
// leaving the hook in place for an exporter to be added later without
// touching services/runner or services/executor.
func NewTracerProvider() *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	return tp
}

// Shutdown flushes and stops tp, tolerating a nil tp so callers can
// defer it unconditionally.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
