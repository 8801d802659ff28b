// Package sha256 fingerprints CV content so unchanged CVs are not forwarded twice.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/JakeFAU/rtcv-scraper-bridge/pkg/cv"
)

// Hasher computes SHA-256 digests.
type Hasher struct{}

// New returns a SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashCV digests the JSON form of c. Two CVs that encode the same hash the same.
func (h *Hasher) HashCV(c cv.CV) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode cv %s: %w", c.ReferenceNumber, err)
	}
	return h.Hash(data), nil
}
