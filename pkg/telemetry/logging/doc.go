// Package logging builds the structured loggers used across Conductor.
//
// Loggers are plain *slog.Logger values whose handler adds fields stored in
// the context, so components log with the standard slog API:
//
//	logger, err := logging.New(logging.Config{Level: "debug", Format: "json"})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "routing decision", "primary", "ollama")
//	// {"level":"INFO","msg":"routing decision","primary":"ollama","request_id":"req-123"}
//
// Components take a *slog.Logger and default to slog.Default().
package logging
