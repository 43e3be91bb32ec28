package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// PKCEPair holds a code verifier and its derived S256 challenge (RFC 7636).
type PKCEPair struct {
	Verifier  string
	Challenge string
}

// GeneratePKCE creates a new PKCE pair. The verifier encodes 32 random
// bytes as unpadded base64url, which yields the 43-character minimum the
// RFC requires.
func GeneratePKCE() (PKCEPair, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return PKCEPair{}, fmt.Errorf("reading random bytes: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(b)
	return PKCEPair{
		Verifier:  verifier,
		Challenge: ChallengeFor(verifier),
	}, nil
}

// ChallengeFor computes the S256 code challenge for a verifier:
// base64url(SHA-256(verifier)) with padding stripped.
func ChallengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyChallenge reports whether challenge is the S256 challenge of verifier.
func VerifyChallenge(challenge, verifier string) bool {
	return challenge == ChallengeFor(verifier)
}

// GenerateState creates a random state parameter for CSRF protection.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
