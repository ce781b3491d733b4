package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
)

// EncryptedPersister wraps another persister and seals each document with
// AES-256-GCM before it reaches disk. Medication schedules and chat
// history are health data; when an at-rest key is configured every local
// document goes through this wrapper.
type EncryptedPersister struct {
	inner Persister
	key   []byte
}

// Ensure EncryptedPersister implements Persister interface
var _ Persister = (*EncryptedPersister)(nil)

// NewEncryptedPersister wraps inner with AES-256-GCM sealing. The key
// must be exactly 32 bytes.
func NewEncryptedPersister(inner Persister, key []byte) (*EncryptedPersister, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes for AES-256, got %d bytes", len(key))
	}
	return &EncryptedPersister{inner: inner, key: key}, nil
}

// Load reads the sealed document, decrypts it and decodes the plaintext
// into v. A missing document reports false with a nil error, matching the
// wrapped persister.
func (p *EncryptedPersister) Load(name string, v any) (bool, error) {
	var sealed string
	found, err := p.inner.Load(name, &sealed)
	if err != nil || !found {
		return found, err
	}

	plaintext, err := p.open(sealed)
	if err != nil {
		return false, fmt.Errorf("failed to decrypt document %s: %w", name, err)
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return false, fmt.Errorf("failed to decode document %s: %w", name, err)
	}
	return true, nil
}

// Save encodes v, seals it and hands the ciphertext to the wrapped
// persister as the document body
func (p *EncryptedPersister) Save(name string, v any) error {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", name, err)
	}

	sealed, err := p.seal(plaintext)
	if err != nil {
		return fmt.Errorf("failed to encrypt document %s: %w", name, err)
	}
	return p.inner.Save(name, sealed)
}

// seal encrypts plaintext with AES-256-GCM, prepending the nonce, and
// encodes the result as base64
func (p *EncryptedPersister) seal(plaintext []byte) (string, error) {
	gcm, err := p.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// open decodes and decrypts a sealed document body
func (p *EncryptedPersister) open(sealed string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	gcm, err := p.gcm()
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	return plaintext, nil
}

func (p *EncryptedPersister) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
