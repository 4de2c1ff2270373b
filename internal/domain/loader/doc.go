// Package loader provides the collaborators that receive validated code
// after a publish commits.
//
// Implementations:
//   - Memory: in-process loader with structural checks
//   - GRPCClient: forwards to a remote loader node over gRPC
//   - Instrumented: metrics and logging around any loader
//
// RegisterServer exposes any registry.Loader over the same wire contract, so
// a loader node is just a gRPC server wrapping Memory (or a real verifier).
// Requests travel as google.protobuf.Struct values on the method
// /loader.v1.Loader/Load.
package loader
