package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasher(t *testing.T) {
	// Known SHA3-256 and SHA-256 digests of the empty input
	assert.Equal(t, "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a", DefaultHasher().Hash(nil))
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", NewHasher(SHA256).Hash(nil))
}

func TestHashBlobsBoundaries(t *testing.T) {
	h := DefaultHasher()

	a := h.HashBlobs([][]byte{[]byte("ab"), []byte("c")})
	b := h.HashBlobs([][]byte{[]byte("a"), []byte("bc")})
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, h.HashBlobs([][]byte{[]byte("ab"), []byte("c")}))
	assert.Len(t, a, 64)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abcdefgh", ShortHash("abcdefghijkl"))
	assert.Equal(t, "abc", ShortHash("abc"))
}
