package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ObjectIDLength is the length of a hex encoded 12 byte document id.
const ObjectIDLength = 24

// Generator creates opaque IDs in the backend's document id format.
type Generator interface {
	NewID() (string, error)
}

type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) NewID() (string, error) {
	buf := make([]byte, ObjectIDLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}

var validate = validator.New()

// IsObjectID reports whether v is a 24 character hexadecimal id. Case is ignored.
func IsObjectID(v string) bool {
	if len(v) != ObjectIDLength {
		return false
	}
	return validate.Var(strings.ToLower(v), "mongodb") == nil
}
