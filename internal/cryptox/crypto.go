// Package cryptox implements attachment encryption. Each attachment is
// sealed with AES-256-GCM under a random per-file key; the key and nonce
// travel with the attachment's local bookkeeping row, never with the
// uploaded ciphertext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"os"
)

// EncryptedBlob holds ciphertext plus the material needed to open it again.
type EncryptedBlob struct {
	Ciphertext []byte
	Key        []byte
	Nonce      []byte
}

// GenerateRandBytes returns size cryptographically random bytes.
func GenerateRandBytes(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// EncryptFile reads the file at path and seals it with a fresh random key.
func EncryptFile(path string) (*EncryptedBlob, error) {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key := GenerateRandBytes(32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := GenerateRandBytes(aesgcm.NonceSize())

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedBlob{Ciphertext: ciphertext, Key: key, Nonce: nonce}, nil
}

// Decrypt opens ciphertext produced by EncryptFile.
func Decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return aesgcm.Open(nil, nonce, ciphertext, nil)
}
