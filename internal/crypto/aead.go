package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

const (
	// KeySize is the required AES-256 key length in bytes.
	KeySize = 32

	nonceSize = 12
)

var (
	// ErrKeySize signals that the configured encryption key does not decode
	// to exactly KeySize bytes.
	ErrKeySize = errors.New("encryption key must be 32 bytes")

	// ErrCiphertext signals an undecryptable payload: bad encoding, truncated
	// input, or authentication tag mismatch. The cause is deliberately not
	// distinguished to the caller.
	ErrCiphertext = errors.New("ciphertext is invalid or has been tampered with")
)

// AEAD seals and opens link payloads with AES-256-GCM. Stored blobs are
// base64(nonce || ciphertext || tag) with a fresh random nonce per call.
type AEAD struct {
	aead cipher.AEAD
}

// NewAEAD builds an AEAD from a raw 32-byte key.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("crypto: init gcm: %w", err)
	}
	return &AEAD{aead: aead}, nil
}

// KeyFromBase64 decodes the configured base64 key and validates its length.
func KeyFromBase64(encoded string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("crypto: decode key: %w", ErrKeySize)
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	return key, nil
}

// Encrypt seals plaintext under a fresh nonce and returns the storable blob.
func (a *AEAD) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: read nonce: %w", err)
	}

	out := make([]byte, 0, nonceSize+len(plaintext)+a.aead.Overhead())
	out = append(out, nonce...)
	out = a.aead.Seal(out, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt opens a blob produced by Encrypt. It returns ErrCiphertext on any
// malformed or tampered input and never returns partial plaintext.
func (a *AEAD) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, ErrCiphertext
	}
	if len(raw) < nonceSize {
		return nil, ErrCiphertext
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := a.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrCiphertext
	}
	return plaintext, nil
}
