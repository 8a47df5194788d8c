package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"math/big"

	"github.com/cuemby/ksm/pkg/kerr"
)

const (
	// PublicKeySize is the uncompressed SEC1 point length for P-256
	PublicKeySize = 65
)

// GeneratePrivateKeyDER generates a new P-256 private key and returns it
// as PKCS#8 DER bytes, the form stored in the client configuration.
func GeneratePrivateKeyDER() ([]byte, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to generate private key")
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to marshal private key")
	}
	return der, nil
}

// LoadPrivateKeyDER parses a PKCS#8 DER blob into a P-256 private key
func LoadPrivateKeyDER(der []byte) (*ecdsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to parse PKCS#8 private key")
	}
	priv, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, kerr.New(kerr.KindCrypto, component, "private key is not an EC key")
	}
	if priv.Curve != elliptic.P256() {
		return nil, kerr.New(kerr.KindCrypto, component, "private key is not on P-256")
	}
	return priv, nil
}

// PublicKeyFromDER extracts the uncompressed SEC1 public point (65 bytes,
// leading 0x04) from a PKCS#8 DER private key.
func PublicKeyFromDER(der []byte) ([]byte, error) {
	priv, err := LoadPrivateKeyDER(der)
	if err != nil {
		return nil, err
	}
	pub, err := priv.PublicKey.ECDH()
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to convert public key")
	}
	return pub.Bytes(), nil
}

// parseSEC1 turns an uncompressed SEC1 point into an ECDSA public key
func parseSEC1(raw []byte) (*ecdsa.PublicKey, error) {
	if len(raw) != PublicKeySize || raw[0] != 0x04 {
		return nil, kerr.New(kerr.KindCrypto, component, "invalid public key: want %d bytes with 0x04 prefix", PublicKeySize)
	}
	x := new(big.Int).SetBytes(raw[1:33])
	y := new(big.Int).SetBytes(raw[33:])
	if !elliptic.P256().IsOnCurve(x, y) {
		return nil, kerr.New(kerr.KindCrypto, component, "public key point is not on P-256")
	}
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}

// Sign signs message with ECDSA P-256 over SHA-256 and returns a DER
// encoded signature.
func Sign(priv *ecdsa.PrivateKey, message []byte) ([]byte, error) {
	digest := sha256.Sum256(message)
	sig, err := ecdsa.SignASN1(rand.Reader, priv, digest[:])
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to sign")
	}
	return sig, nil
}

// Verify checks a DER signature over message against an uncompressed SEC1
// public key.
func Verify(pubSEC1, message, sig []byte) (bool, error) {
	pub, err := parseSEC1(pubSEC1)
	if err != nil {
		return false, err
	}
	digest := sha256.Sum256(message)
	return ecdsa.VerifyASN1(pub, digest[:], sig), nil
}

// PublicEncrypt wraps data to a recipient public key with an ephemeral
// ECDH exchange: a fresh P-256 key agrees with the recipient point, the
// shared secret (with the optional idz bytes appended) is hashed with
// SHA-256 into an AES key, and data is sealed with AES-GCM. The output is
// the ephemeral public point (65 bytes) followed by the GCM blob.
func PublicEncrypt(data, recipientSEC1, idz []byte) ([]byte, error) {
	eph, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to generate ephemeral key")
	}
	remote, err := ecdh.P256().NewPublicKey(recipientSEC1)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "invalid recipient public key")
	}
	shared, err := eph.ECDH(remote)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "key agreement failed")
	}
	key := sha256.Sum256(append(shared, idz...))
	blob, err := EncryptAESGCM(key[:], data)
	if err != nil {
		return nil, err
	}
	return append(eph.PublicKey().Bytes(), blob...), nil
}

// PublicDecrypt reverses PublicEncrypt given the recipient private key.
// The client itself never unwraps keys it encrypted to the application
// owner; this is the verification half used by tests and tooling.
func PublicDecrypt(blob []byte, priv *ecdsa.PrivateKey, idz []byte) ([]byte, error) {
	if len(blob) <= PublicKeySize {
		return nil, kerr.New(kerr.KindCrypto, component, "ciphertext too short: %d bytes", len(blob))
	}
	ecdhPriv, err := priv.ECDH()
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to convert private key")
	}
	eph, err := ecdh.P256().NewPublicKey(blob[:PublicKeySize])
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "invalid ephemeral public key")
	}
	shared, err := ecdhPriv.ECDH(eph)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "key agreement failed")
	}
	key := sha256.Sum256(append(shared, idz...))
	return DecryptAESGCM(key[:], blob[PublicKeySize:])
}

// HMACSHA512 computes HMAC-SHA-512 of msg under key (64 bytes out)
func HMACSHA512(key, msg []byte) []byte {
	mac := hmac.New(sha512.New, key)
	mac.Write(msg)
	return mac.Sum(nil)
}
