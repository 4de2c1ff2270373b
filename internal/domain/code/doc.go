// Package code is the entry point for publishing and inspecting code.
//
// Manager wraps the registry publisher in a ledger transaction so that a
// failed publish, including a loader rejection, leaves no trace. It also
// fills in a SHA3-256 source digest when the caller leaves it empty and
// records publish metrics. Observers registered with WithObserver see
// every settled publish as an Event.
//
// Example Usage:
//
//	mgr := code.NewManager(ledger.New(store, logger), publisher, logger).WithMetrics(metrics)
//	res, err := mgr.Publish(ctx, code.PublishRequest{Publisher: addr, Package: pkg, Code: blobs})
//	pkg, err := mgr.Package(ctx, addr, "Coin")
package code
