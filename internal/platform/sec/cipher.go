// Copyright (c) 2026 Bloomify. All rights reserved.

package sec

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrCiphertext is returned when a sealed value cannot be opened.
var ErrCiphertext = errors.New("sec: invalid ciphertext")

// Sealed is an AES-256-CBC ciphertext with the IV it was produced with, both hex encoded.
type Sealed struct {
	Ciphertext string
	IV         string
}

// PasswordCipher encrypts short secrets with AES-256-CBC and PKCS#7 padding.
// Every call to Seal draws a fresh random IV.
type PasswordCipher struct {
	block cipher.Block
}

// NewPasswordCipher builds a cipher from a 64-character hex key.
func NewPasswordCipher(hexKey string) (*PasswordCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("sec: cipher key is not hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("sec: cipher key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to init cipher: %w", err)
	}

	return &PasswordCipher{block: block}, nil
}

// Seal encrypts plaintext under a new IV.
func (c *PasswordCipher) Seal(plaintext string) (Sealed, error) {
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return Sealed{}, fmt.Errorf("sec: failed to generate iv: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)

	return Sealed{Ciphertext: hex.EncodeToString(out), IV: hex.EncodeToString(iv)}, nil
}

// Open decrypts a value produced by Seal.
func (c *PasswordCipher) Open(sealed Sealed) (string, error) {
	iv, err := hex.DecodeString(sealed.IV)
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrCiphertext
	}

	data, err := hex.DecodeString(sealed.Ciphertext)
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", ErrCiphertext
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, data)

	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrCiphertext
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize {
		return nil, ErrCiphertext
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrCiphertext
		}
	}
	return data[:len(data)-padding], nil
}
