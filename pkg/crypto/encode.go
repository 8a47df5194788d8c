package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"strings"

	"github.com/cuemby/ksm/pkg/kerr"
)

const (
	// UIDSize is the raw byte length of record, folder and file UIDs
	UIDSize = 16

	// TransmissionKeySize is the length of the per-request symmetric key
	TransmissionKeySize = 32
)

// BytesToBase64 encodes with standard base64 (padded), the form used for
// configuration values.
func BytesToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// BytesToURLSafeStr encodes with URL-safe base64 without padding, the form
// used for UIDs and wire fields.
func BytesToURLSafeStr(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// Base64ToBytes decodes base64 leniently: standard and URL-safe alphabets,
// padded or unpadded, are all accepted. Server and config values mix these
// forms, so every decode path in the SDK goes through here.
func Base64ToBytes(s string) ([]byte, error) {
	normalized := strings.TrimRight(s, "=")
	normalized = strings.ReplaceAll(normalized, "+", "-")
	normalized = strings.ReplaceAll(normalized, "/", "_")
	data, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "invalid base64")
	}
	return data, nil
}

// URLSafeStrToBytes is Base64ToBytes under its wire-format name
func URLSafeStrToBytes(s string) ([]byte, error) {
	return Base64ToBytes(s)
}

// RandomBytes returns n cryptographically random bytes
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to read random bytes")
	}
	return b, nil
}

// RandomUID returns 16 random bytes suitable as a record, folder or file
// UID. The top 5 bits of the first byte must not all be set: the server
// rejects UIDs whose base64 form starts with such bytes. Regenerate up to
// 8 times, then clear the bits.
func RandomUID() ([]byte, error) {
	var uid []byte
	for attempt := 0; attempt < 8; attempt++ {
		b, err := RandomBytes(UIDSize)
		if err != nil {
			return nil, err
		}
		uid = b
		if uid[0]&0xF8 != 0xF8 {
			return uid, nil
		}
	}
	uid[0] &= 0x7F
	return uid, nil
}

// GenerateUID returns a fresh UID in its URL-safe base64 form (22 chars)
func GenerateUID() (string, error) {
	uid, err := RandomUID()
	if err != nil {
		return "", err
	}
	return BytesToURLSafeStr(uid), nil
}
