package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
)

// Cipher provides AES-256-GCM authenticated encryption for values that must
// be persisted but never stored in the clear (system credential bearer
// values). Ciphertext layout: [12-byte nonce][encrypted data][16-byte tag],
// base64url encoded.
type Cipher struct {
	key []byte
}

// NewCipher derives a 32-byte AES-256 key from arbitrary key material using
// SHA-256.
func NewCipher(keyMaterial []byte) (*Cipher, error) {
	if len(keyMaterial) == 0 {
		return nil, errors.New("cryptox: empty cipher key material")
	}
	hash := sha256.Sum256(keyMaterial)
	return &Cipher{key: hash[:]}, nil
}

// NewCipherFromFile loads key material from a file, generating and persisting
// it on first use.
func NewCipherFromFile(path string) (*Cipher, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		material := make([]byte, 32)
		if _, err := rand.Read(material); err != nil {
			return nil, fmt.Errorf("cryptox: generate key material: %w", err)
		}
		encoded := base64.RawURLEncoding.EncodeToString(material)
		if err := os.WriteFile(path, []byte(encoded), 0600); err != nil {
			return nil, fmt.Errorf("cryptox: write key file: %w", err)
		}
		return NewCipher([]byte(encoded))
	}

	material, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cryptox: read key file: %w", err)
	}
	return NewCipher(material)
}

// Encrypt seals plaintext with a fresh random nonce. Ciphertext is
// non-deterministic; two encryptions of the same input differ.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cryptox: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cryptox: create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("cryptox: generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("cryptox: decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("cryptox: create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cryptox: create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return "", errors.New("cryptox: ciphertext too short")
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("cryptox: decryption failed: %w", err)
	}

	return string(plaintext), nil
}
