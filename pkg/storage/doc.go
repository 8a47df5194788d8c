/*
Package storage persists the KSM client configuration and the optional
offline response cache.

# Configuration store

The configuration is a flat map of nine well-known keys to strings
(hostname, clientId, clientKey, appKey, privateKey, serverPublicKeyId,
appOwnerPublicKey, bat, bindingKey). Anything else in a persisted
configuration is a load error. Exactly one of three key combinations is a
valid persistent state:

  - clientKey alone: a one-time token waiting for first use
  - clientId + privateKey: bound identity, app key not yet received
  - clientId + privateKey + appKey: fully bound

Two implementations of the Store interface exist:

MemoryStore keeps the map in RAM. NewMemoryStoreFromConfig accepts a JSON
object or a base64-encoded JSON object (the KSM_CONFIG form); base64 is
detected by attempting decode-then-parse.

FileStore persists to a single JSON file (client-config.json by default).
Every mutation rewrites the file atomically (temp file + rename) under a
process-local per-path mutex, so two stores on the same path from the same
process never interleave writes. New files are created with 0600
permissions on POSIX; loose permissions on an existing file log a warning.
Environment switches:

	KSM_CONFIG_SKIP_MODE=TRUE          do not set file permissions
	KSM_CONFIG_SKIP_MODE_WARNING=TRUE  do not warn about loose permissions

# Offline cache

CacheStorage holds the last successful get_secret response as
transmission_key || ciphertext so it can be replayed when the network is
down. FileCache is the single-file backend; BoltCache keeps the value in a
bbolt bucket for applications that already use bolt. Either way the cache
is as sensitive as the config file and gets the same permissions.

# Usage

	store, err := storage.NewFileStore("client-config.json")
	if err != nil {
		return err
	}
	if err := store.Set(storage.KeyHostname, "keepersecurity.com"); err != nil {
		return err
	}

	cache, _ := storage.NewFileCache("")
	sm := client.NewSecretsManager(&client.Options{Config: store, Cache: cache})
*/
package storage
