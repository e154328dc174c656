package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// NewAESGCM creates an AES-GCM Sealer.
//
// Key must be 16, 24, or 32 bytes for AES-128, AES-192, or AES-256.
func NewAESGCM(key []byte) (Sealer, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, errors.New("seal: invalid key size for AES-GCM: must be 16, 24, or 32 bytes")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &aeadSealer{aead: aead, alg: AlgorithmAESGCM}, nil
}

// NewChaCha20 creates a ChaCha20-Poly1305 Sealer.
//
// Key must be exactly 32 bytes.
func NewChaCha20(key []byte) (Sealer, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, errors.New("seal: invalid key size for ChaCha20-Poly1305: must be 32 bytes")
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	return &aeadSealer{aead: aead, alg: AlgorithmChaCha20}, nil
}
