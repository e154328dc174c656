// Package seal provides the optional encrypt stage of the value
// pipeline: authenticated encryption of encoded payloads.
//
// The algorithm is selected automatically from hardware capabilities:
// AES-GCM where AES instructions are available, ChaCha20-Poly1305
// otherwise. Keys may be supplied raw (32 bytes) or derived from a
// passphrase.
//
// @req RQ-0203
// @design DS-0203
package seal

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"
	"runtime"
)

// Algorithm identifies the AEAD algorithm backing a Sealer.
type Algorithm string

const (
	AlgorithmAESGCM   Algorithm = "aes-gcm"
	AlgorithmChaCha20 Algorithm = "chacha20-poly1305"
)

// ErrOpenFailed is returned when authenticated decryption fails,
// meaning a wrong key or tampered ciphertext. Callers must not
// conflate it with a parse failure of the plaintext.
var ErrOpenFailed = errors.New("seal: open failed")

// Sealer performs authenticated encryption of payloads.
type Sealer interface {
	// Algorithm returns the backing AEAD algorithm.
	Algorithm() Algorithm

	// Seal encrypts plaintext, binding the additional data.
	// The nonce is generated per call and prepended to the result.
	Seal(plaintext, additionalData []byte) ([]byte, error)

	// Open decrypts a payload produced by Seal. Returns ErrOpenFailed
	// when authentication fails.
	Open(sealed, additionalData []byte) ([]byte, error)
}

// New creates a Sealer for the given 32-byte key, selecting the
// optimal algorithm for the current hardware.
func New(key []byte) (Sealer, error) {
	if hasAESHardware() {
		return NewAESGCM(key)
	}
	return NewChaCha20(key)
}

// NewWithAlgorithm creates a Sealer of the specified algorithm.
func NewWithAlgorithm(key []byte, alg Algorithm) (Sealer, error) {
	switch alg {
	case AlgorithmAESGCM:
		return NewAESGCM(key)
	case AlgorithmChaCha20:
		return NewChaCha20(key)
	default:
		return nil, errors.New("seal: unknown algorithm: " + string(alg))
	}
}

// FromPassphrase derives a 32-byte key from a passphrase and creates
// a Sealer with the hardware-selected algorithm.
func FromPassphrase(passphrase string) (Sealer, error) {
	key := sha256.Sum256([]byte(passphrase))
	return New(key[:])
}

// hasAESHardware reports whether Go's crypto/aes runs hardware
// accelerated on this architecture. On amd64 and arm64 Go uses the
// native AES instructions when present; elsewhere ChaCha20 is faster.
func hasAESHardware() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}

// aeadSealer implements Sealer over any cipher.AEAD.
type aeadSealer struct {
	aead cipher.AEAD
	alg  Algorithm
}

func (s *aeadSealer) Algorithm() Algorithm { return s.alg }

func (s *aeadSealer) Seal(plaintext, additionalData []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	// Nonce is prepended so Open can recover it.
	return s.aead.Seal(nonce, nonce, plaintext, additionalData), nil
}

func (s *aeadSealer) Open(sealed, additionalData []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, ErrOpenFailed
	}
	nonce := sealed[:s.aead.NonceSize()]
	plaintext, err := s.aead.Open(nil, nonce, sealed[s.aead.NonceSize():], additionalData)
	if err != nil {
		return nil, ErrOpenFailed
	}
	return plaintext, nil
}
