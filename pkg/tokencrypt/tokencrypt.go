// Package tokencrypt cifra los tokens del proveedor fiscal antes de guardarlos.
// Formato: "iv_hex:ciphertext_hex" con AES-256-CBC y PKCS#7.
package tokencrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// KeyHexLength largo exigido de la clave (32 bytes en hex).
const KeyHexLength = 64

var (
	ErrMissingKey     = errors.New("tokencrypt: FISCAL_ENCRYPTION_KEY no configurada")
	ErrInvalidKey     = errors.New("tokencrypt: la clave debe tener exactamente 64 caracteres hex (32 bytes)")
	ErrInvalidFormat  = errors.New("tokencrypt: formato inválido, se esperaba iv:ciphertext")
	ErrEmptyPlaintext = errors.New("tokencrypt: texto vacío")
	ErrDecrypt        = errors.New("tokencrypt: no se pudo descifrar (clave incorrecta o dato corrupto)")
)

// Cipher cifra y descifra tokens con una clave fija. Seguro para uso concurrente.
type Cipher struct {
	block cipher.Block
}

// New valida la clave hex y construye el cifrador. Pensado para llamarse al arranque.
func New(hexKey string) (*Cipher, error) {
	hexKey = strings.TrimSpace(hexKey)
	if hexKey == "" {
		return nil, ErrMissingKey
	}
	if len(hexKey) != KeyHexLength {
		return nil, ErrInvalidKey
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("tokencrypt: aes: %w", err)
	}
	return &Cipher{block: block}, nil
}

// GenerateKey devuelve una clave aleatoria de 32 bytes en hex.
func GenerateKey() (string, error) {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("tokencrypt: generar clave: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// Encrypt cifra con un IV aleatorio nuevo en cada llamada.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPlaintext
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("tokencrypt: generar IV: %w", err)
	}
	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// Decrypt es el inverso exacto de Encrypt.
func (c *Cipher) Decrypt(encrypted string) (string, error) {
	parts := strings.Split(encrypted, ":")
	if len(parts) != 2 {
		return "", ErrInvalidFormat
	}
	iv, err := hex.DecodeString(parts[0])
	if err != nil || len(iv) != aes.BlockSize {
		return "", ErrInvalidFormat
	}
	data, err := hex.DecodeString(parts[1])
	if err != nil || len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return "", ErrInvalidFormat
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(c.block, iv).CryptBlocks(out, data)
	plain, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}

// IsEncrypted indica si el valor tiene la forma iv:ciphertext (no valida la clave).
func IsEncrypted(value string) bool {
	parts := strings.Split(value, ":")
	if len(parts) != 2 || len(parts[0]) != aes.BlockSize*2 {
		return false
	}
	_, err1 := hex.DecodeString(parts[0])
	_, err2 := hex.DecodeString(parts[1])
	return err1 == nil && err2 == nil
}

func pkcs7Pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, size int) ([]byte, error) {
	if len(b) == 0 || len(b)%size != 0 {
		return nil, ErrDecrypt
	}
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, ErrDecrypt
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, ErrDecrypt
		}
	}
	return b[:len(b)-n], nil
}
