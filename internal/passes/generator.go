// Package passes issues scannable gate passes: the ticket's proof facts are
// AES-encrypted and rendered as a QR code. Scanners decrypt the payload and
// check it against the ledger before marking the ticket used.
package passes

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"

	"github.com/skip2/go-qrcode"

	"ticket-ledger/internal/models"
)

type Generator struct {
	secret []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:]}
}

// GeneratePassQR encrypts the pass payload and renders it as a QR PNG.
func (g *Generator) GeneratePassQR(pass models.PassPayload) ([]byte, error) {
	encrypted, err := g.EncryptPayload(pass)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// EncryptPayload produces the base64 ciphertext carried inside the QR code.
func (g *Generator) EncryptPayload(pass models.PassPayload) (string, error) {
	data, err := json.Marshal(pass)
	if err != nil {
		return "", err
	}
	return encryptAES(data, g.secret)
}

// DecryptPayload reverses EncryptPayload at the gate.
func (g *Generator) DecryptPayload(encrypted string) (*models.PassPayload, error) {
	data, err := decryptAES(encrypted, g.secret)
	if err != nil {
		return nil, err
	}

	var pass models.PassPayload
	if err := json.Unmarshal(data, &pass); err != nil {
		return nil, err
	}
	return &pass, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(encoded string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return data, nil
}
