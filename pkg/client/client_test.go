package client

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/storage"
	"github.com/cuemby/ksm/pkg/transport"
	"github.com/cuemby/ksm/pkg/types"
)

// mockServer speaks the envelope protocol: it unwraps each request's
// transmission key with its own private key and answers GCM-encrypted.
type mockServer struct {
	*httptest.Server
	priv   *ecdsa.PrivateKey
	handle func(path string, payload []byte) (int, []byte)
	posts  atomic.Int32
}

func (m *mockServer) hostname() string {
	return strings.TrimPrefix(m.URL, "https://")
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()

	der, err := crypto.GeneratePrivateKeyDER()
	require.NoError(t, err)
	priv, err := crypto.LoadPrivateKeyDER(der)
	require.NoError(t, err)
	pub, err := crypto.PublicKeyFromDER(der)
	require.NoError(t, err)
	t.Cleanup(transport.OverrideServerPublicKey(transport.DefaultKeyID, pub))

	m := &mockServer{priv: priv}
	m.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.posts.Add(1)

		wrapped, err := crypto.Base64ToBytes(r.Header.Get("TransmissionKey"))
		require.NoError(t, err)
		tkey, err := crypto.PublicDecrypt(wrapped, m.priv, nil)
		require.NoError(t, err)
		encPayload, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		payload, err := crypto.DecryptAESGCM(tkey, encPayload)
		require.NoError(t, err)

		path := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		status, plain := m.handle(path, payload)
		w.WriteHeader(status)
		if len(plain) > 0 && status == http.StatusOK {
			enc, err := crypto.EncryptAESGCM(tkey, plain)
			require.NoError(t, err)
			w.Write(enc)
		} else {
			w.Write(plain)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func mustKey(t *testing.T) []byte {
	t.Helper()
	key, err := crypto.RandomBytes(crypto.AESKeySize)
	require.NoError(t, err)
	return key
}

// newToken fabricates a one-time token secret
func newToken(t *testing.T) (secret string, secretBytes []byte) {
	t.Helper()
	secretBytes = mustKey(t)[:16]
	return crypto.BytesToURLSafeStr(secretBytes), secretBytes
}

// boundStore builds a configuration already in the bound state, plus an
// owner keypair for wrap verification.
func boundStore(t *testing.T, hostname string) (*storage.MemoryStore, []byte, *ecdsa.PrivateKey) {
	t.Helper()

	clientDER, err := crypto.GeneratePrivateKeyDER()
	require.NoError(t, err)
	ownerDER, err := crypto.GeneratePrivateKeyDER()
	require.NoError(t, err)
	ownerPriv, err := crypto.LoadPrivateKeyDER(ownerDER)
	require.NoError(t, err)
	ownerPub, err := crypto.PublicKeyFromDER(ownerDER)
	require.NoError(t, err)

	appKey := mustKey(t)
	store := storage.NewMemoryStore()
	require.NoError(t, store.SaveAll(map[storage.ConfigKey]string{
		storage.KeyHostname:          hostname,
		storage.KeyClientID:          "client-id-1",
		storage.KeyPrivateKey:        crypto.BytesToBase64(clientDER),
		storage.KeyAppKey:            crypto.BytesToURLSafeStr(appKey),
		storage.KeyOwnerPublicKey:    crypto.BytesToBase64(ownerPub),
		storage.KeyServerPublicKeyID: transport.DefaultKeyID,
	}))
	return store, appKey, ownerPriv
}

// recordEnvelope wraps a record dict the way the server would
func recordEnvelope(t *testing.T, uid string, dict map[string]interface{}, recordKey, contextKey []byte) types.RecordEnvelope {
	t.Helper()
	dataBlob, err := crypto.EncryptAESGCM(recordKey, mustJSON(t, dict))
	require.NoError(t, err)
	keyBlob, err := crypto.EncryptAESGCM(contextKey, recordKey)
	require.NoError(t, err)
	return types.RecordEnvelope{
		RecordUid:  uid,
		RecordKey:  crypto.BytesToURLSafeStr(keyBlob),
		Data:       crypto.BytesToURLSafeStr(dataBlob),
		Revision:   1,
		IsEditable: true,
	}
}

func TestFreshBind(t *testing.T) {
	secret, secretBytes := newToken(t)
	appKey := mustKey(t)

	srv := newMockServer(t)
	recordKey := mustKey(t)
	dict := map[string]interface{}{
		"title": "bound secret", "type": "login",
		"fields": []interface{}{
			map[string]interface{}{"type": "password", "value": []interface{}{"pw"}},
		},
	}

	srv.handle = func(path string, payload []byte) (int, []byte) {
		require.Equal(t, "get_secret", path)
		var req types.GetPayload
		require.NoError(t, json.Unmarshal(payload, &req))
		require.Equal(t, ClientVersion, req.ClientVersion)

		if req.PublicKey != "" {
			// unbound client: hand over the wrapped app key plus a
			// record, forcing the post-bind re-fetch
			wrapped, err := crypto.EncryptAESGCM(secretBytes, appKey)
			require.NoError(t, err)
			return http.StatusOK, mustJSON(t, types.GetResponse{
				EncryptedAppKey:   crypto.BytesToBase64(wrapped),
				AppOwnerPublicKey: "b3duZXI",
				Records: []types.RecordEnvelope{
					recordEnvelope(t, "rec-1", dict, recordKey, appKey),
				},
			})
		}
		return http.StatusOK, mustJSON(t, types.GetResponse{
			Records: []types.RecordEnvelope{
				recordEnvelope(t, "rec-1", dict, recordKey, appKey),
			},
		})
	}

	store := storage.NewMemoryStore()
	sm, err := NewSecretsManager(&ClientOptions{
		Token:              secret,
		Hostname:           srv.hostname(),
		Config:             store,
		InsecureSkipVerify: true,
	})
	require.NoError(t, err)

	// constructor leaves the store unbound but initialized
	require.Equal(t, clientIDFromSecret(secretBytes), store.Get(storage.KeyClientID))
	require.Equal(t, secret, store.Get(storage.KeyClientKey))
	require.NotEmpty(t, store.Get(storage.KeyPrivateKey))
	require.Equal(t, transport.DefaultKeyID, store.Get(storage.KeyServerPublicKeyID))
	require.False(t, store.Contains(storage.KeyAppKey))

	records, err := sm.GetSecrets(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "bound secret", records[0].Title)
	require.Equal(t, "pw", records[0].Password)

	// bind happened: appKey stored, single-use clientKey gone
	gotAppKey, err := crypto.Base64ToBytes(store.Get(storage.KeyAppKey))
	require.NoError(t, err)
	require.Equal(t, appKey, gotAppKey)
	require.False(t, store.Contains(storage.KeyClientKey))
	require.Equal(t, "b3duZXI", store.Get(storage.KeyOwnerPublicKey))

	// binding response with records costs one extra round-trip
	require.Equal(t, int32(2), srv.posts.Load())
}

func TestFreshBindRegionToken(t *testing.T) {
	secret, _ := newToken(t)
	store := storage.NewMemoryStore()
	_, err := NewSecretsManager(&ClientOptions{Token: "US:" + secret, Config: store})
	require.NoError(t, err)
	require.Equal(t, "keepersecurity.com", store.Get(storage.KeyHostname))
}

func TestBindRequiresToken(t *testing.T) {
	_, err := NewSecretsManager(&ClientOptions{Config: storage.NewMemoryStore()})
	require.True(t, kerr.IsKind(err, kerr.KindConfig))
}

func TestBareTokenRequiresHostname(t *testing.T) {
	secret, _ := newToken(t)
	_, err := NewSecretsManager(&ClientOptions{Token: secret, Config: storage.NewMemoryStore()})
	require.True(t, kerr.IsKind(err, kerr.KindConfig))
}

func TestBindingConflict(t *testing.T) {
	secret, _ := newToken(t)
	store := storage.NewMemoryStore()
	_, err := NewSecretsManager(&ClientOptions{Token: secret, Hostname: "h.example.com", Config: store})
	require.NoError(t, err)

	// same token again is accepted silently
	_, err = NewSecretsManager(&ClientOptions{Token: secret, Hostname: "h.example.com", Config: store})
	require.NoError(t, err)

	// a different token derives a different clientId
	other, _ := newToken(t)
	_, err = NewSecretsManager(&ClientOptions{Token: other, Hostname: "h.example.com", Config: store})
	require.True(t, kerr.IsKind(err, kerr.KindBindingConflict))
}

func TestGetSecretByTitle(t *testing.T) {
	srv := newMockServer(t)
	store, appKey, _ := boundStore(t, srv.hostname())

	recordKey := mustKey(t)
	srv.handle = func(path string, payload []byte) (int, []byte) {
		return http.StatusOK, mustJSON(t, types.GetResponse{
			Records: []types.RecordEnvelope{
				recordEnvelope(t, "rec-1", map[string]interface{}{"title": "Prod DB", "type": "login"}, recordKey, appKey),
				recordEnvelope(t, "rec-2", map[string]interface{}{"title": "Staging DB", "type": "login"}, mustKey(t), appKey),
			},
		})
	}

	sm, err := NewSecretsManager(&ClientOptions{Config: store, InsecureSkipVerify: true})
	require.NoError(t, err)

	r, err := sm.GetSecretByTitle(context.Background(), "Prod DB")
	require.NoError(t, err)
	require.Equal(t, "rec-1", r.Uid)

	_, err = sm.GetSecretByTitle(context.Background(), "QA DB")
	require.True(t, kerr.IsKind(err, kerr.KindRecordData))
}
