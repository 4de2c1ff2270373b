// Package server assembles the registry service from configuration: store,
// loader, publisher, ledger, genesis seeding and the HTTP router.
package server
