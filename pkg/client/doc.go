/*
Package client is the public facade of the secrets manager SDK.

A SecretsManager wraps a configuration store, completes the one-time
token binding, and exposes fetches, mutations, file transfer and
notation queries over the encrypted transport.

# Binding lifecycle

A configuration moves through three states:

  - fresh: no clientId. The constructor requires a one-time token,
    derives clientId with HMAC-SHA-512 over the token secret, generates
    the client's P-256 key, and persists hostname, clientKey and the
    default server public key id.
  - unbound: clientId and privateKey exist but no appKey. The first
    fetch sends the client public key; the server answers with an
    encryptedAppKey, which is unwrapped with the token secret. The app
    key is persisted, clientKey is deleted, and if the same response
    already carried records they are re-fetched once under the app key.
  - bound: appKey present; fetches decrypt directly. Passing the
    original token again is accepted; a token that derives a different
    clientId fails with a binding conflict.

The constructor leaves the store in the unbound or bound state, never
fresh.

# Usage

	sm, err := client.NewSecretsManager(&client.ClientOptions{
		Token:  "US:MY_ONE_TIME_TOKEN",
		Config: store,
	})
	if err != nil {
		return err
	}
	records, err := sm.GetSecrets(ctx, nil)

Mutations follow the protocol's wrapping rules: new record keys are
wrapped both to the application owner's public key and under the target
folder key; folder payloads use AES-CBC where record payloads use
AES-GCM. Two-phase password rotation stages an update with
TransactionRotation and settles it with CompleteTransaction.
*/
package client
