package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain password using bcrypt with the given cost.
// Costs outside bcrypt's range fall back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// temporaryAlphabet excludes look-alike characters (0/O, 1/l/I).
const temporaryAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTemporaryPassword returns a random credential of length n.
func GenerateTemporaryPassword(n int) (string, error) {
	if n < 8 {
		n = 8
	}
	limit := big.NewInt(int64(len(temporaryAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate temporary password: %w", err)
		}
		out[i] = temporaryAlphabet[idx.Int64()]
	}
	return string(out), nil
}
