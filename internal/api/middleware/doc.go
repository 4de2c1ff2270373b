// Package middleware holds the gin middleware in front of the registry API:
// CORS, per-IP and global rate limits, and a JSON body guard.
package middleware
