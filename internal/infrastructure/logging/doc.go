// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a *Logger and derive a named child with Component, so
// every line carries the subsystem that produced it (publisher, ledger,
// loader, genesis, http).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	pub := logger.Component("publisher")
//	pub.Info("package published", zap.String("package", "Coin"))
//	pub.Error("publish failed", zap.Error(err))
package logging
