// Package bundle reads release bundles from disk.
//
// A bundle is a YAML descriptor listing package directories in publish
// order, each placed at an account. A package directory holds:
//
//	Package.toml                 manifest (name, policy, dependencies)
//	bytecode_modules/<m>.mv      module bytecode, optionally .gz or .zst
//	source_maps/<m>.mvsm         optional source maps
//
// Compression is detected from the blob's magic bytes, not the file name.
// When the manifest carries no source digest, the SHA3-256 digest of the
// module blobs is used.
package bundle
