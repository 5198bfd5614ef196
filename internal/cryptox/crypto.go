// Package cryptox implements the symmetric payload cipher used to hide
// identity data inside otherwise inspectable tokens, plus key derivation
// from the configured encryption secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrMalformedCiphertext is returned when the input is not validly
	// encoded or too short to hold a nonce and an authentication tag.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrDecrypt is returned when authentication fails: wrong key or
	// tampered ciphertext.
	ErrDecrypt = errors.New("decryption failed")
)

var encoding = base64.RawURLEncoding

// DeriveKey stretches secret into a 32-byte AES-256 key with argon2id.
// Same inputs always produce the same key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// PayloadCipher encrypts and decrypts string payloads with AES-GCM.
//
// The output of Encrypt is base64url(nonce || ciphertext || tag). A fresh
// random nonce is generated for every call, so encrypting the same
// plaintext twice yields different outputs.
//
// PayloadCipher is immutable and safe for concurrent use.
type PayloadCipher struct {
	aead cipher.AEAD
}

// NewPayloadCipher builds a cipher for key, which must be 16, 24 or 32
// bytes long (AES-128, AES-192 or AES-256).
func NewPayloadCipher(key []byte) (*PayloadCipher, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new aes cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &PayloadCipher{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh nonce.
func (c *PayloadCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// nonce is used as dst so the result is nonce || sealed
	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)

	return encoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It fails on wrong keys, truncated or corrupted
// input and input that is not base64url.
func (c *PayloadCipher) Decrypt(ciphertext string) (string, error) {
	raw, err := encoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}

	nonceSize := c.aead.NonceSize()
	if len(raw) < nonceSize+c.aead.Overhead() {
		return "", ErrMalformedCiphertext
	}

	plaintext, err := c.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return "", ErrDecrypt
	}

	return string(plaintext), nil
}

// Wipe zeroes b. Use it on derived keys once the cipher holds them.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
