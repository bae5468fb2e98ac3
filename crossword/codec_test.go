package crossword

import (
	"strings"
	"testing"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestAnswerCodecRoundtrip(t *testing.T) {
	codec, err := NewAnswerCodec(testKeyHex)
	if err != nil {
		t.Fatalf("Couldn't create codec: %s", err)
	}
	cipher, err := codec.EncryptAnswer("RIVER")
	if err != nil {
		t.Fatalf("Couldn't encrypt: %s", err)
	}
	if strings.Contains(cipher, "RIVER") {
		t.Fatalf("Ciphertext contains the plaintext: %s", cipher)
	}
	plain, err := codec.DecryptAnswer(cipher)
	if err != nil {
		t.Fatalf("Couldn't decrypt: %s", err)
	}
	if plain != "RIVER" {
		t.Fatalf("Roundtrip failed: %s vs RIVER", plain)
	}
	// Fresh nonce every call, same answer shouldn't repeat on the wire
	cipher2, err := codec.EncryptAnswer("RIVER")
	if err != nil {
		t.Fatalf("Couldn't encrypt again: %s", err)
	}
	if cipher == cipher2 {
		t.Fatalf("Two encryptions produced identical ciphertext")
	}
}

func TestAnswerCodecInvalidCiphertext(t *testing.T) {
	codec, err := NewAnswerCodec(testKeyHex)
	if err != nil {
		t.Fatalf("Couldn't create codec: %s", err)
	}
	for _, garbage := range []string{"", "notbase64!!!", "AAAA", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		_, err = codec.DecryptAnswer(garbage)
		if err == nil {
			t.Fatalf("Expected decrypt error for %q", garbage)
		}
	}
}

func TestAnswerCodecWrongKey(t *testing.T) {
	codec, err := NewAnswerCodec(testKeyHex)
	if err != nil {
		t.Fatalf("Couldn't create codec: %s", err)
	}
	other, err := NewAnswerCodec("ff0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1eff")
	if err != nil {
		t.Fatalf("Couldn't create second codec: %s", err)
	}
	cipher, err := codec.EncryptAnswer("HANOI")
	if err != nil {
		t.Fatalf("Couldn't encrypt: %s", err)
	}
	_, err = other.DecryptAnswer(cipher)
	if err == nil {
		t.Fatalf("Expected decrypt failure with the wrong key")
	}
}

func TestAnswerCodecNoKey(t *testing.T) {
	codec, err := NewAnswerCodec("")
	if err != nil {
		t.Fatalf("Empty key shouldn't be an error: %s", err)
	}
	if codec != nil {
		t.Fatalf("Empty key should yield a nil codec")
	}
}

func TestAnswerCodecBadKey(t *testing.T) {
	_, err := NewAnswerCodec("nothex")
	if err == nil {
		t.Fatalf("Expected error for non-hex key")
	}
	_, err = NewAnswerCodec("abcd")
	if err == nil {
		t.Fatalf("Expected error for short key")
	}
}
