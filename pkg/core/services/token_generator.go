package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

const (
	// TokenLength is the size of generated short tokens (62^6 combinations).
	TokenLength = 6
	// DefaultMaxAttempts bounds collision retries.
	DefaultMaxAttempts = 32

	charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// TokenGenerator produces random short tokens that are free in the link table.
type TokenGenerator struct {
	links       ports.LinkRepository
	maxAttempts int
	generate    func() (string, error)
}

func NewTokenGenerator(links ports.LinkRepository, maxAttempts int) *TokenGenerator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &TokenGenerator{
		links:       links,
		maxAttempts: maxAttempts,
		generate:    func() (string, error) { return generateShortCode(TokenLength) },
	}
}

// Generate returns a random token without checking the link table.
func (g *TokenGenerator) Generate() (string, error) {
	return g.generate()
}

// Allocate returns the first generated token not present in the link table.
// The token is not reserved: a concurrent insert may still claim it, and the
// caller retries on domain.ErrConflict.
func (g *TokenGenerator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		token, err := g.generate()
		if err != nil {
			return "", fmt.Errorf("generate token: %w", err)
		}

		taken, err := g.links.LinkExists(ctx, token)
		if err != nil {
			return "", fmt.Errorf("check token %q: %w", token, err)
		}
		if !taken {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrTokenSpaceExhausted, g.maxAttempts)
}

// MaxAttempts is the retry budget shared by allocation and insertion.
func (g *TokenGenerator) MaxAttempts() int {
	return g.maxAttempts
}

func generateShortCode(length int) (string, error) {
	b := make([]byte, length)
	n := big.NewInt(int64(len(charset)))
	for i := range b {
		num, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}
