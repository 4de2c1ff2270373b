package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/sha3"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA3_256 HashAlgorithm = "sha3-256"
	SHA256   HashAlgorithm = "sha256"
)

// Hasher computes hex digests
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a hasher for algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{algorithm: algorithm}
}

// DefaultHasher returns a SHA3-256 hasher
func DefaultHasher() *Hasher {
	return NewHasher(SHA3_256)
}

// Algorithm returns the configured algorithm
func (h *Hasher) Algorithm() HashAlgorithm {
	return h.algorithm
}

func (h *Hasher) newHash() hash.Hash {
	if h.algorithm == SHA256 {
		return sha256.New()
	}
	return sha3.New256()
}

// Hash computes the digest of data
func (h *Hasher) Hash(data []byte) string {
	d := h.newHash()
	d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// HashBlobs digests an ordered list of blobs. Each blob is length-prefixed,
// so moving bytes between neighbours changes the digest.
func (h *Hasher) HashBlobs(blobs [][]byte) string {
	d := h.newHash()
	var prefix [8]byte
	for _, b := range blobs {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(b)))
		d.Write(prefix[:])
		d.Write(b)
	}
	return hex.EncodeToString(d.Sum(nil))
}

// ShortHash returns the first 8 characters of a digest for display
func ShortHash(full string) string {
	if len(full) < 8 {
		return full
	}
	return full[:8]
}
