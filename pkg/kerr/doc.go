/*
Package kerr defines the error kinds raised by the KSM client core.

Every component wraps failures in a kerr.Error carrying the kind, the
component name, and the underlying cause, so a failure surfaced to the
caller reads like a stack:

	client: failed to decode secrets response: record: failed to decrypt
	record key: crypto: cipher: message authentication failed

# Kinds

  - Config: missing or invalid configuration keys, permission problems
  - Decode: invalid base64 or UTF-8
  - Serialization: malformed JSON from the server or the caller
  - Crypto: AES-GCM tag mismatch, bad key length, signature failure
  - HTTP: non-2xx without a recognized server error code, network failure
  - ServerKeyRotation: server asked for a different public key (retried
    once internally by the transport; surfaced only when retry fails)
  - InvalidClientVersion: server rejected the client version
  - BindingConflict: token hashes to a different client identity than the
    one stored in configuration
  - RecordData: invalid record template passed to a create call
  - Notation: notation parse or resolution failure
  - File: file upload failure

# Usage

	if err != nil {
		return kerr.Wrap(kerr.KindCrypto, "transport", err, "failed to decrypt response")
	}

	if kerr.IsKind(err, kerr.KindHTTP) {
		// fall back to the offline cache
	}
*/
package kerr
