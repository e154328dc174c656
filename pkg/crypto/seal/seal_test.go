package seal

import (
	"bytes"
	"errors"
	"testing"
)

var key32 = func() []byte {
	k := make([]byte, 32)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}()

func TestSealOpenRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmAESGCM, AlgorithmChaCha20} {
		t.Run(string(alg), func(t *testing.T) {
			s, err := NewWithAlgorithm(key32, alg)
			if err != nil {
				t.Fatalf("NewWithAlgorithm: %v", err)
			}

			plaintext := []byte("the quick brown fox")
			aad := []byte("entry:k1")

			sealed, err := s.Seal(plaintext, aad)
			if err != nil {
				t.Fatalf("Seal: %v", err)
			}
			if bytes.Contains(sealed, plaintext) {
				t.Fatal("sealed output contains plaintext")
			}

			opened, err := s.Open(sealed, aad)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			if !bytes.Equal(opened, plaintext) {
				t.Fatalf("Open = %q, want %q", opened, plaintext)
			}
		})
	}
}

func TestOpenFailures(t *testing.T) {
	s, err := New(key32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sealed, err := s.Seal([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	// Tampered ciphertext.
	sealed[len(sealed)-1] ^= 0xff
	if _, err := s.Open(sealed, nil); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open tampered err = %v, want ErrOpenFailed", err)
	}

	// Truncated below nonce size.
	if _, err := s.Open(sealed[:4], nil); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open truncated err = %v, want ErrOpenFailed", err)
	}

	// Wrong key.
	other := make([]byte, 32)
	s2, _ := New(other)
	good, _ := s.Seal([]byte("payload"), nil)
	if _, err := s2.Open(good, nil); !errors.Is(err, ErrOpenFailed) {
		t.Fatalf("Open wrong key err = %v, want ErrOpenFailed", err)
	}
}

func TestFromPassphrase(t *testing.T) {
	s1, err := FromPassphrase("hunter2")
	if err != nil {
		t.Fatalf("FromPassphrase: %v", err)
	}
	s2, _ := FromPassphrase("hunter2")

	sealed, _ := s1.Seal([]byte("x"), nil)
	if _, err := s2.Open(sealed, nil); err != nil {
		t.Fatalf("same passphrase should open: %v", err)
	}
}

func TestInvalidKeySizes(t *testing.T) {
	if _, err := NewAESGCM(make([]byte, 15)); err == nil {
		t.Fatal("NewAESGCM accepted 15-byte key")
	}
	if _, err := NewChaCha20(make([]byte, 16)); err == nil {
		t.Fatal("NewChaCha20 accepted 16-byte key")
	}
	if _, err := NewWithAlgorithm(key32, "des"); err == nil {
		t.Fatal("NewWithAlgorithm accepted unknown algorithm")
	}
}
