// Package cryptoblob gives spec.md's "external byte-storage collaborator,
// not specified here" (§1, §6.4) a concrete, testable shape: AES-GCM
// encryption of the persisted history blob, with PBKDF2 passphrase-based
// key derivation for the CLI harness's optional masked passphrase (§11,
// §12.5).
package cryptoblob

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/sodiumhq/kanacore/storage"
)

const (
	// KeySize is the AES-256 key length DeriveKey produces and Seal/Open
	// require.
	KeySize = 32

	saltSize  = 16
	iterCount = 100_000
)

// ErrShortBlob is returned by Open when blob is too short to contain a
// nonce.
var ErrShortBlob = errors.New("cryptoblob: blob shorter than a nonce")

// NewSalt returns a fresh random salt for DeriveKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("cryptoblob: generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a KeySize-byte AES-256 key from a user passphrase and
// salt via PBKDF2-HMAC-SHA256.
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterCount, KeySize, sha256.New)
}

// Seal encrypts plaintext under key (which must be KeySize bytes),
// returning nonce||ciphertext — the opaque blob spec §6.4 describes.
func Seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("cryptoblob: generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a blob produced by Seal.
func Open(key, blob []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < gcm.NonceSize() {
		return nil, ErrShortBlob
	}
	nonce, ciphertext := blob[:gcm.NonceSize()], blob[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("cryptoblob: open: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cryptoblob: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cryptoblob: new gcm: %w", err)
	}
	return gcm, nil
}

// Codec wraps a storage.Backend, transparently encrypting on Save and
// decrypting on Load, so the predictor's LRU serialization (spec §4.8)
// only ever handles plaintext. Codec itself satisfies storage.Backend.
type Codec struct {
	backend storage.Backend
	key     []byte
}

var _ storage.Backend = (*Codec)(nil)

// NewCodec wraps backend with AES-GCM encryption under key (KeySize bytes,
// see DeriveKey).
func NewCodec(backend storage.Backend, key []byte) *Codec {
	return &Codec{backend: backend, key: key}
}

func (c *Codec) Load() ([]byte, error) {
	blob, err := c.backend.Load()
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	return Open(c.key, blob)
}

func (c *Codec) Save(plaintext []byte) error {
	blob, err := Seal(c.key, plaintext)
	if err != nil {
		return err
	}
	return c.backend.Save(blob)
}

func (c *Codec) Close() error { return c.backend.Close() }
