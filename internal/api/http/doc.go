// Package http exposes the code registry over gin.
//
// Publish failures map to status codes by kind: 403 when the chain does
// not accept code from the publisher, 409 for module clashes and immutable
// packages, 422 for other rule violations and loader rejections, 400 for
// malformed input and 404 for unknown accounts or packages. Rule violations
// also carry their kind and abort code in the body.
package http
