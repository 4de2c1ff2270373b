// Package main runs a standalone loader node. It serves the loader gRPC
// contract backed by the in-process loader, so a registry server started
// with -remote-loader has something to talk to.
package main
