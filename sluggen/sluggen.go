// Package sluggen provides slug generation functionality.
// Generators should be safe for concurrent use.
package sluggen

import (
	"crypto/rand"
	"errors"
)

const (
	alphanumChars = "abcdefghijklmnopqrstuvwxyz0123456789"

	// maxUnbiasedByte is the largest multiple of len(alphanumChars) that fits
	// in a byte. Bytes at or above it are rejected so that every character is
	// drawn uniformly (256 % 36 != 0, so a plain modulo would skew the first
	// four characters of the alphabet).
	maxUnbiasedByte = 252
)

// Generator generates URL slugs.
// Implementations should be safe for concurrent use.
type Generator interface {
	Generate(length int) (string, error)
}

// alphanumGenerator implements Generator over the lowercase-alphanumeric
// alphabet. It is safe for concurrent use.
type alphanumGenerator struct{}

// NewAlphanum returns a slug generator over [a-z0-9].
func NewAlphanum() Generator {
	return &alphanumGenerator{}
}

// Generate generates a random lowercase-alphanumeric string of the specified length.
func (g *alphanumGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("length must be positive")
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length)

	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxUnbiasedByte {
				continue
			}
			out = append(out, alphanumChars[int(b)%len(alphanumChars)])
			if len(out) == length {
				break
			}
		}
	}

	return string(out), nil
}
