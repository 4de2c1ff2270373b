// Package client is the HTTP client for a registry server, used by regctl.
package client
