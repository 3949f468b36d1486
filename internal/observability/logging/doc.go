// Package logging centralizes how the binaries construct their slog loggers
// and how request and run scope travels with a context.
//
// The API server and worker log JSON to stdout (New), the CLI logs to
// stderr so stdout stays pipeable (NewStderrLogger), and LOG_FORMAT=text
// switches to the console handler for local debugging. LOG_LEVEL=debug is
// the only level switch.
//
// Scoped loggers:
//
//	// HTTPリクエスト毎
//	logger := logging.WithRequest(ctx, baseLogger)
//
//	// パイプライン実行毎
//	logger := logging.WithRun(baseLogger, runID)
//
// The request logging middleware stores its scoped logger in the context;
// handlers retrieve it with logging.Ctx(ctx) and every line they write
// carries the request_id without further plumbing.
package logging
