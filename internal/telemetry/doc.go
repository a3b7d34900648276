// Package telemetry provides OpenTelemetry instrumentation for journald.
//
// # Overview
//
// Telemetry owns the TracerProvider and MeterProvider used by the
// reflection store and the HTTP layer. When enabled, spans and metrics are
// exported over OTLP (gRPC by default, or HTTP/protobuf). When disabled,
// Tracer and Meter fall back to the global no-op providers so instrumented
// code never needs to check.
//
// Telemetry failures do not stop the service. An exporter that cannot be
// built marks the instance degraded and the service keeps running.
//
// # Usage
//
//	tel, err := telemetry.New(ctx, telemetry.FromSettings(cfg.Telemetry))
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry()
//	tracer := tt.Tracer("test")
//	...
//	tt.AssertSpanExists(t, "reflection.create")
package telemetry
