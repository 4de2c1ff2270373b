// Package genesis seeds the registry from release bundles on disk at
// startup, typically the framework packages at the exempt addresses.
package genesis
