// Package config provides 12-factor configuration for the registry service.
//
// Configuration is loaded from environment variables with defaults.
// CLI flags in cmd/server can override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting
//   - Chain: Network the registry runs on
//   - Storage: Registry store driver and path
//   - Loader: Remote loader gRPC connection
//   - Registry: Upgrade rule switches
//   - Genesis: Release bundles seeded at startup
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Registry on %s running at %s:%s\n", cfg.Chain.Name, cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CHAIN, STORAGE_DRIVER, STORAGE_PATH
//   - LOADER_ADDR, LOADER_ENABLED, LOADER_TIMEOUT
//   - REGISTRY_REQUIRE_MODULE_RETENTION
//   - GENESIS_DIR, GENESIS_PATTERN
package config
