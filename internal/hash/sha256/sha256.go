// Package sha256 fingerprints generated artifacts.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Prefix tags digests produced by Digest.
const Prefix = "sha256:"

// Hasher fingerprints artifact bodies with SHA-256.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Digest returns the prefixed digest recorded in run manifests.
func (h *Hasher) Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return Prefix + hex.EncodeToString(sum[:])
}
