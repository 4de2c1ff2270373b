// Package main is the entry point for the code registry server.
//
// The server accepts package publishes over HTTP, checks them against the
// registry rules, hands accepted code to a loader and commits the result.
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Devnet with an in-memory store and in-process loader
//	./server -port 8000
//
//	# Mainnet, persistent store, remote loader, framework seeded at startup
//	./server -chain mainnet -storage sqlite -db /var/lib/registry.db \
//	    -remote-loader -loader loader:50051 -genesis /releases
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
