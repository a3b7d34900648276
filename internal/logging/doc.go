// Package logging provides structured logging for journald.
//
// # Overview
//
// The package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Stdout output plus an optional OpenTelemetry log bridge
//   - Automatic context fields (trace_id, span_id, request.id)
//   - Redaction of journal text and credentials by field name
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg, err := logging.FromSettings("info", "json")
//	if err != nil {
//	    return err
//	}
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	logger.Info(ctx, "reflection created", zap.String("id", id))
//
// # Redaction
//
// Reflections are private. Fields named "reflection" (and credential-like
// names) are replaced with "[REDACTED:<len>]" by the stdout encoder, so a
// stray zap.String("reflection", text) never reaches the log stream.
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
package logging
