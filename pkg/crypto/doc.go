/*
Package crypto implements the primitive layer of the KSM protocol: the
symmetric ciphers, the EC key operations, and the encodings every other
component builds on.

# Primitives

Symmetric:

  - AES-256-GCM with a 12-byte prepended nonce and 128-bit tag. Used for
    transport payloads, record data, record/file key wrapping, and
    top-level folder key wrapping.
  - AES-256-CBC with a 16-byte prepended IV and PKCS#7 padding. Used for
    folder data payloads and sub-folder key wrapping only. DecryptAESCBC
    deliberately leaves the padding in place because one server payload
    format is length-prefixed instead of padded; DecryptAESCBCUnpad is
    the padded variant.

The two modes are not interchangeable. The server speaks GCM for records
and CBC for folder payloads; normalizing to one mode silently breaks
shared-folder trees.

Asymmetric (P-256 throughout):

  - PublicEncrypt: ephemeral ECDH with the recipient point, SHA-256 of the
    shared secret (plus optional idz bytes) as the AES-GCM key, output
    ephemeral_point || gcm_blob. This wraps record and file keys to the
    application owner.
  - Sign / Verify: ECDSA over SHA-256, DER signatures. Every transport
    request is signed with the client private key.
  - Private keys travel as PKCS#8 DER, public keys as uncompressed SEC1
    points (65 bytes, leading 0x04).

Other:

  - HMACSHA512: derives the client identifier from the one-time token.
  - Base64ToBytes: lenient base64 decode. Config and wire values mix
    standard/URL-safe alphabets and padded/unpadded forms; all four are
    accepted.
  - RandomUID: 16 random bytes with the top 5 bits of byte 0 never all
    set, so the encoded UID never starts with a character the server
    rejects.

# Errors

All failures are kerr.Error values of kind Crypto (or Decode for base64),
component "crypto".
*/
package crypto
