/*
Package transport implements the encrypted request/response exchange
with the secrets server.

Every call generates a fresh 32-byte transmission key, wraps it to the
active server public key with ECIES, encrypts the JSON payload under it
with AES-GCM, and signs the wrapped key concatenated with the ciphertext
using the client's ECDSA private key. The server decrypts the payload,
verifies the signature against the registered client, and answers with a
body encrypted under the same transmission key.

When the server rejects a call with result_code "key" it names the
public key id it wants used instead; PostQuery persists that id and
retries the call exactly once. All other server errors are mapped to
error kinds and returned.

A CacheStorage can be attached with WithCache. Successful get_secret
responses are mirrored into it as transmission key plus raw ciphertext,
and replayed when a later get_secret cannot reach the server at all.
Server-side rejections never fall back to cache.

File bodies live outside this protocol: DownloadBytes fetches opaque
ciphertext from pre-signed URLs, and UploadMultipart posts encrypted
file bodies with the upload parameters the server handed out.
*/
package transport
