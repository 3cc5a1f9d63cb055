package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Generator creates opaque profile identifiers for external references.
type Generator interface {
	NewID() (string, error)
}

// Prefix marks generated identifiers so they are recognizable in logs and
// webhook payloads next to caller-supplied IDs.
const Prefix = "profile-"

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return Prefix + hex.EncodeToString(buf), nil
}
