package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/cuemby/ksm/pkg/kerr"
)

const (
	// AESKeySize is the key size for all symmetric keys in the protocol
	AESKeySize = 32

	// GCMNonceSize is the nonce length prepended to every GCM blob
	GCMNonceSize = 12

	// GCMTagSize is the authentication tag length appended by GCM
	GCMTagSize = 16

	// CBCBlockSize is the AES block / IV size for CBC payloads
	CBCBlockSize = 16
)

const component = "crypto"

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != AESKeySize {
		return nil, kerr.New(kerr.KindCrypto, component, "encryption key must be %d bytes, got %d", AESKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to create cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to create GCM")
	}
	return gcm, nil
}

// EncryptAESGCM encrypts plaintext with AES-256-GCM under a fresh random
// nonce. The nonce is prepended to the returned ciphertext.
func EncryptAESGCM(key, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, GCMNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to generate nonce")
	}
	return EncryptAESGCMWithNonce(key, plaintext, nonce)
}

// EncryptAESGCMWithNonce encrypts plaintext with AES-256-GCM under the
// caller-supplied 12-byte nonce. Used by tests that need deterministic
// ciphertexts; production paths use EncryptAESGCM.
func EncryptAESGCMWithNonce(key, plaintext, nonce []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != GCMNonceSize {
		return nil, kerr.New(kerr.KindCrypto, component, "nonce must be %d bytes, got %d", GCMNonceSize, len(nonce))
	}
	return gcm.Seal(append([]byte{}, nonce...), nonce, plaintext, nil), nil
}

// DecryptAESGCM decrypts a blob produced by EncryptAESGCM: the first 12
// bytes are the nonce, the remainder is ciphertext plus the 16-byte tag.
func DecryptAESGCM(key, blob []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(blob) < GCMNonceSize+GCMTagSize {
		return nil, kerr.New(kerr.KindCrypto, component, "ciphertext too short: %d bytes", len(blob))
	}
	nonce, ciphertext := blob[:GCMNonceSize], blob[GCMNonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to decrypt")
	}
	return plaintext, nil
}

// PadPKCS7 pads data to the 16-byte AES block. A message whose length is
// already a block multiple gets a full block of padding appended.
func PadPKCS7(data []byte) []byte {
	padLen := CBCBlockSize - len(data)%CBCBlockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// UnpadPKCS7 removes PKCS#7 padding added by PadPKCS7
func UnpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 || len(data)%CBCBlockSize != 0 {
		return nil, kerr.New(kerr.KindCrypto, component, "invalid padded length %d", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > CBCBlockSize || padLen > len(data) {
		return nil, kerr.New(kerr.KindCrypto, component, "invalid padding byte %d", padLen)
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, kerr.New(kerr.KindCrypto, component, "inconsistent padding")
		}
	}
	return data[:len(data)-padLen], nil
}

// EncryptAESCBC encrypts plaintext with AES-256-CBC and PKCS#7 padding
// under a fresh random IV. The IV is prepended to the ciphertext.
func EncryptAESCBC(key, plaintext []byte) ([]byte, error) {
	iv := make([]byte, CBCBlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to generate IV")
	}
	return EncryptAESCBCWithIV(key, plaintext, iv)
}

// EncryptAESCBCWithIV encrypts with a caller-supplied 16-byte IV
func EncryptAESCBCWithIV(key, plaintext, iv []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, kerr.New(kerr.KindCrypto, component, "encryption key must be %d bytes, got %d", AESKeySize, len(key))
	}
	if len(iv) != CBCBlockSize {
		return nil, kerr.New(kerr.KindCrypto, component, "IV must be %d bytes, got %d", CBCBlockSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to create cipher")
	}
	padded := PadPKCS7(plaintext)
	out := make([]byte, CBCBlockSize+len(padded))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[CBCBlockSize:], padded)
	return out, nil
}

// DecryptAESCBC decrypts a blob produced by EncryptAESCBC. The first 16
// bytes are the IV. Padding is NOT removed: some server payload formats
// carry their own length prefix instead of PKCS#7, so the caller decides.
// Use DecryptAESCBCUnpad for the standard padded case.
func DecryptAESCBC(key, blob []byte) ([]byte, error) {
	if len(key) != AESKeySize {
		return nil, kerr.New(kerr.KindCrypto, component, "encryption key must be %d bytes, got %d", AESKeySize, len(key))
	}
	if len(blob) < 2*CBCBlockSize || (len(blob)-CBCBlockSize)%CBCBlockSize != 0 {
		return nil, kerr.New(kerr.KindCrypto, component, "invalid CBC ciphertext length %d", len(blob))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to create cipher")
	}
	iv, ciphertext := blob[:CBCBlockSize], blob[CBCBlockSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)
	return plaintext, nil
}

// DecryptAESCBCUnpad decrypts a CBC blob and strips PKCS#7 padding
func DecryptAESCBCUnpad(key, blob []byte) ([]byte, error) {
	plaintext, err := DecryptAESCBC(key, blob)
	if err != nil {
		return nil, err
	}
	return UnpadPKCS7(plaintext)
}
