/*
Package monitoring provides Prometheus metrics for the registry service.

# Metrics

  - HTTP requests by route template and status
  - Publishes by outcome and failure kind, with latency
  - Registry size: accounts, packages, modules, packages by policy
  - Loader hand-offs by backend
  - Ledger transactions and genesis seeding

Every Metrics value owns a private prometheus.Registry instead of the global
default registerer, so tests can build as many as they like.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordPublish(registry.Kind(err), time.Since(start), len(allowed))
*/
package monitoring
