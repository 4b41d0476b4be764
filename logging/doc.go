// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the registry, engine and self-test runner use for
// observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - RouterLogger with component / call attributes and dispatch helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	eng := engine.New(reg, func(o *engine.Options) { o.Logger = logger })
package logging
