package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/scrypt"

	"github.com/RandyMyers/affiliateShares-sub001/internal/domain"
)

// Stored-secret format: hex(iv) + ":" + hex(ciphertext).
const cipherSeparator = ":"

// scrypt parameters for deriving the AES-256 key from the master secret.
const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
)

// Key-derivation salt. Fixed so that the same master secret always derives
// the same key; per-message randomness comes from the IV instead.
var kdfSalt = []byte("affiliateshares-gateway-credentials")

// Cipher encrypts gateway secret keys for storage. AES-256-CBC with a fresh
// random IV per call, so two encryptions of the same plaintext never produce
// equal ciphertexts.
type Cipher struct {
	block cipher.Block
}

// NewCipher derives the encryption key from the server-held master secret.
func NewCipher(masterSecret string) (*Cipher, error) {
	if masterSecret == "" {
		return nil, fmt.Errorf("master secret must not be empty: %w", domain.ErrInvalidArgument)
	}
	key, err := scrypt.Key([]byte(masterSecret), kdfSalt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	return &Cipher{block: block}, nil
}

// Encrypt returns the stored form hex(iv):hex(ct).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("rand iv: %w", err)
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ct := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(ct, padded)
	return hex.EncodeToString(iv) + cipherSeparator + hex.EncodeToString(ct), nil
}

// Decrypt accepts the output of Encrypt. A malformed value or a rotated
// master secret yields domain.ErrDecryptFailed.
func (c *Cipher) Decrypt(stored string) (string, error) {
	iv, ct, ok := splitStored(stored)
	if !ok {
		return "", fmt.Errorf("malformed ciphertext: %w", domain.ErrDecryptFailed)
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(pt, ct)
	unpadded, err := pkcs7Unpad(pt, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, domain.ErrDecryptFailed)
	}
	return string(unpadded), nil
}

// EncryptIfNeeded encrypts a plaintext secret but passes an already-encrypted
// value through untouched. Re-encrypting ciphertext would corrupt the secret
// permanently, so the save path must always go through here.
func (c *Cipher) EncryptIfNeeded(secret string) (string, error) {
	if IsEncrypted(secret) {
		return secret, nil
	}
	return c.Encrypt(secret)
}

// IsEncrypted detects the stored hex(iv):hex(ct) form.
func IsEncrypted(s string) bool {
	_, _, ok := splitStored(s)
	return ok
}

func splitStored(s string) (iv, ct []byte, ok bool) {
	parts := strings.SplitN(s, cipherSeparator, 2)
	if len(parts) != 2 {
		return nil, nil, false
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return nil, nil, false
	}
	ct, err = hex.DecodeString(parts[1])
	if err != nil || len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, nil, false
	}
	return iv, ct, true
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("inconsistent padding")
		}
	}
	return b[:len(b)-n], nil
}
