package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestGenerateLoadPrivateKey(t *testing.T) {
	der, err := GeneratePrivateKeyDER()
	if err != nil {
		t.Fatalf("GeneratePrivateKeyDER() error = %v", err)
	}

	priv, err := LoadPrivateKeyDER(der)
	if err != nil {
		t.Fatalf("LoadPrivateKeyDER() error = %v", err)
	}
	if priv == nil {
		t.Fatal("LoadPrivateKeyDER() returned nil key")
	}

	pub, err := PublicKeyFromDER(der)
	if err != nil {
		t.Fatalf("PublicKeyFromDER() error = %v", err)
	}
	if len(pub) != PublicKeySize || pub[0] != 0x04 {
		t.Errorf("public key = %d bytes, first byte %#x; want %d bytes with 0x04 prefix", len(pub), pub[0], PublicKeySize)
	}
}

func TestLoadPrivateKeyDERInvalid(t *testing.T) {
	if _, err := LoadPrivateKeyDER([]byte("not DER")); err == nil {
		t.Error("LoadPrivateKeyDER() expected error for garbage input")
	}
}

func TestSignVerify(t *testing.T) {
	der, err := GeneratePrivateKeyDER()
	if err != nil {
		t.Fatalf("GeneratePrivateKeyDER() error = %v", err)
	}
	priv, err := LoadPrivateKeyDER(der)
	if err != nil {
		t.Fatalf("LoadPrivateKeyDER() error = %v", err)
	}
	pub, err := PublicKeyFromDER(der)
	if err != nil {
		t.Fatalf("PublicKeyFromDER() error = %v", err)
	}

	message := []byte("transmission key || encrypted payload")
	sig, err := Sign(priv, message)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	ok, err := Verify(pub, message, sig)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false for a valid signature")
	}

	ok, err = Verify(pub, []byte("tampered message"), sig)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() = true for a tampered message")
	}
}

func TestVerifyBadPublicKey(t *testing.T) {
	tests := []struct {
		name string
		pub  []byte
	}{
		{name: "too short", pub: make([]byte, 33)},
		{name: "wrong prefix", pub: append([]byte{0x02}, make([]byte, 64)...)},
		{name: "off curve", pub: append([]byte{0x04}, bytes.Repeat([]byte{0x01}, 64)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Verify(tt.pub, []byte("m"), []byte("sig")); err == nil {
				t.Error("Verify() expected error, got nil")
			}
		})
	}
}

func TestPublicEncryptDecryptRoundtrip(t *testing.T) {
	der, err := GeneratePrivateKeyDER()
	if err != nil {
		t.Fatalf("GeneratePrivateKeyDER() error = %v", err)
	}
	priv, err := LoadPrivateKeyDER(der)
	if err != nil {
		t.Fatalf("LoadPrivateKeyDER() error = %v", err)
	}
	pub, err := PublicKeyFromDER(der)
	if err != nil {
		t.Fatalf("PublicKeyFromDER() error = %v", err)
	}

	tests := []struct {
		name string
		data []byte
		idz  []byte
	}{
		{name: "record key no idz", data: bytes.Repeat([]byte{0x7F}, 32), idz: nil},
		{name: "with idz", data: []byte("file key material"), idz: []byte("idz-bytes")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := PublicEncrypt(tt.data, pub, tt.idz)
			if err != nil {
				t.Fatalf("PublicEncrypt() error = %v", err)
			}
			if len(blob) != PublicKeySize+GCMNonceSize+len(tt.data)+GCMTagSize {
				t.Errorf("blob length = %d", len(blob))
			}
			if blob[0] != 0x04 {
				t.Errorf("ephemeral point prefix = %#x, want 0x04", blob[0])
			}

			plaintext, err := PublicDecrypt(blob, priv, tt.idz)
			if err != nil {
				t.Fatalf("PublicDecrypt() error = %v", err)
			}
			if !bytes.Equal(plaintext, tt.data) {
				t.Error("roundtrip mismatch")
			}
		})
	}

	// idz participates in key derivation: wrong idz must fail the tag check
	blob, err := PublicEncrypt([]byte("data"), pub, []byte("right"))
	if err != nil {
		t.Fatalf("PublicEncrypt() error = %v", err)
	}
	if _, err := PublicDecrypt(blob, priv, []byte("wrong")); err == nil {
		t.Error("PublicDecrypt() succeeded with mismatched idz")
	}
}

func TestHMACSHA512(t *testing.T) {
	// RFC 4231 test case 2
	key := []byte("Jefe")
	msg := []byte("what do ya want for nothing?")
	want := "164b7a7bfcf819e2e395fbe73b56e0a387bd64222e831fd610270cd7ea250554" +
		"9758bf75c05a994a6d034f65f8f0e6fdcaeab1a34d4a6b4b636e070a38bce737"

	got := HMACSHA512(key, msg)
	if hex.EncodeToString(got) != want {
		t.Errorf("HMACSHA512() = %x, want %s", got, want)
	}
	if len(got) != 64 {
		t.Errorf("HMACSHA512() length = %d, want 64", len(got))
	}
}
