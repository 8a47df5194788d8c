package crypto

import (
	"bytes"
	"testing"
)

func testKey() []byte {
	key := make([]byte, 32)
	copy(key, []byte("test-encryption-key-32-bytes-!!"))
	return key
}

func TestEncryptDecryptAESGCMRoundtrip(t *testing.T) {
	key := testKey()

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{
			name:      "simple string",
			plaintext: []byte("hello world"),
		},
		{
			name:      "json data",
			plaintext: []byte(`{"title":"prod db","type":"login"}`),
		},
		{
			name:      "binary data",
			plaintext: []byte{0x00, 0x01, 0x02, 0xFF, 0xFE, 0xFD},
		},
		{
			name:      "empty plaintext",
			plaintext: []byte{},
		},
		{
			name:      "large data",
			plaintext: bytes.Repeat([]byte("test"), 1000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := EncryptAESGCM(key, tt.plaintext)
			if err != nil {
				t.Fatalf("EncryptAESGCM() error = %v", err)
			}
			if len(blob) != GCMNonceSize+len(tt.plaintext)+GCMTagSize {
				t.Errorf("blob length = %d, want %d", len(blob), GCMNonceSize+len(tt.plaintext)+GCMTagSize)
			}

			plaintext, err := DecryptAESGCM(key, blob)
			if err != nil {
				t.Fatalf("DecryptAESGCM() error = %v", err)
			}
			if !bytes.Equal(plaintext, tt.plaintext) {
				t.Errorf("roundtrip mismatch: got %q, want %q", plaintext, tt.plaintext)
			}
		})
	}
}

func TestDecryptAESGCMErrors(t *testing.T) {
	key := testKey()
	blob, err := EncryptAESGCM(key, []byte("payload"))
	if err != nil {
		t.Fatalf("EncryptAESGCM() error = %v", err)
	}

	tests := []struct {
		name string
		key  []byte
		blob []byte
	}{
		{
			name: "wrong key",
			key:  make([]byte, 32),
			blob: blob,
		},
		{
			name: "short key",
			key:  make([]byte, 16),
			blob: blob,
		},
		{
			name: "truncated blob",
			key:  key,
			blob: blob[:GCMNonceSize+GCMTagSize-1],
		},
		{
			name: "corrupted tag",
			key:  key,
			blob: append(append([]byte{}, blob[:len(blob)-1]...), blob[len(blob)-1]^0x01),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptAESGCM(tt.key, tt.blob); err == nil {
				t.Error("DecryptAESGCM() expected error, got nil")
			}
		})
	}
}

func TestPKCS7Padding(t *testing.T) {
	tests := []struct {
		name    string
		dataLen int
		padLen  int
	}{
		{name: "empty", dataLen: 0, padLen: 16},
		{name: "one byte", dataLen: 1, padLen: 15},
		{name: "fifteen bytes", dataLen: 15, padLen: 1},
		{name: "full block appends full block", dataLen: 16, padLen: 16},
		{name: "two blocks minus one", dataLen: 31, padLen: 1},
		{name: "two blocks", dataLen: 32, padLen: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{0xAB}, tt.dataLen)
			padded := PadPKCS7(data)
			if len(padded) != tt.dataLen+tt.padLen {
				t.Fatalf("padded length = %d, want %d", len(padded), tt.dataLen+tt.padLen)
			}
			for _, b := range padded[tt.dataLen:] {
				if int(b) != tt.padLen {
					t.Fatalf("padding byte = %d, want %d", b, tt.padLen)
				}
			}
			unpadded, err := UnpadPKCS7(padded)
			if err != nil {
				t.Fatalf("UnpadPKCS7() error = %v", err)
			}
			if !bytes.Equal(unpadded, data) {
				t.Error("unpad(pad(m)) != m")
			}
		})
	}
}

func TestUnpadPKCS7Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: []byte{}},
		{name: "not block aligned", data: make([]byte, 17)},
		{name: "zero pad byte", data: bytes.Repeat([]byte{0x00}, 16)},
		{name: "pad byte too large", data: append(bytes.Repeat([]byte{0x01}, 15), 0x20)},
		{name: "inconsistent padding", data: append(bytes.Repeat([]byte{0x05}, 14), 0x06, 0x02)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnpadPKCS7(tt.data); err == nil {
				t.Error("UnpadPKCS7() expected error, got nil")
			}
		})
	}
}

func TestEncryptDecryptAESCBCRoundtrip(t *testing.T) {
	key := testKey()

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{name: "short", plaintext: []byte("folder name")},
		{name: "block aligned", plaintext: bytes.Repeat([]byte{0x42}, 32)},
		{name: "empty", plaintext: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := EncryptAESCBC(key, tt.plaintext)
			if err != nil {
				t.Fatalf("EncryptAESCBC() error = %v", err)
			}

			// raw decrypt keeps the padding
			padded, err := DecryptAESCBC(key, blob)
			if err != nil {
				t.Fatalf("DecryptAESCBC() error = %v", err)
			}
			if len(padded)%CBCBlockSize != 0 || len(padded) <= len(tt.plaintext) {
				t.Errorf("padded plaintext length = %d", len(padded))
			}

			plaintext, err := DecryptAESCBCUnpad(key, blob)
			if err != nil {
				t.Fatalf("DecryptAESCBCUnpad() error = %v", err)
			}
			if !bytes.Equal(plaintext, tt.plaintext) {
				t.Errorf("roundtrip mismatch: got %q, want %q", plaintext, tt.plaintext)
			}
		})
	}
}
