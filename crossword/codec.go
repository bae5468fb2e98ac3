package crossword

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/randomouscrap98/wordgrid/utils"
)

// Reversible obfuscation for answer strings: one server-held key for every
// answer in every puzzle. The point is keeping answers out of page source
// before the player finishes, NOT secrecy against someone holding the key.
type AnswerCodec struct {
	key [32]byte
}

// Build a codec from the hex key in config. An empty key yields a nil codec
// (play delivery then refuses outright, there is no plaintext fallback).
func NewAnswerCodec(hexkey string) (*AnswerCodec, error) {
	if hexkey == "" {
		return nil, nil
	}
	raw, err := hex.DecodeString(hexkey)
	if err != nil {
		return nil, fmt.Errorf("answer key isn't valid hex: %s", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("answer key must be 32 bytes, got %d", len(raw))
	}
	codec := AnswerCodec{}
	copy(codec.key[:], raw)
	return &codec, nil
}

// Encrypt a single answer. Random nonce prepended, whole thing base64url.
func (c *AnswerCodec) EncryptAnswer(plaintext string) (string, error) {
	var nonce [24]byte
	_, err := rand.Read(nonce[:])
	if err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt something produced by EncryptAnswer. Any tampering or key
// mismatch comes back as a single invalid-ciphertext failure.
func (c *AnswerCodec) DecryptAnswer(ciphertext string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", utils.Invalid("Invalid ciphertext")
	}
	if len(raw) < 24 {
		return "", utils.Invalid("Invalid ciphertext")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	opened, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", utils.Invalid("Invalid ciphertext")
	}
	return string(opened), nil
}
