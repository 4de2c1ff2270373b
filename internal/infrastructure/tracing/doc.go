// Package tracing provides lightweight request tracing.
//
// Trace and span ids are ULIDs from the id package. They travel in the
// X-Trace-ID / X-Span-ID HTTP headers and the equivalent gRPC metadata keys,
// so a publish can be followed from the API through the remote loader.
// Finished spans are reported through the structured logger.
//
// Example Usage:
//
//	tracer := tracing.New("coderegistry", logger)
//	defer tracer.Close()
//	router.Use(tracing.HTTPMiddleware(tracer))
//	conn, err := grpc.NewClient(addr, grpc.WithUnaryInterceptor(tracing.GRPCClientInterceptor(tracer)))
package tracing
