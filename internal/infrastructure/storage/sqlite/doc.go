// Package sqlite is a registry store on modernc.org/sqlite.
//
// Each account is one row holding its registry as zstd-compressed JSON.
// Ledger commits write all touched rows in one SQL transaction. Schema
// migrations are embedded and applied once on Open.
package sqlite
