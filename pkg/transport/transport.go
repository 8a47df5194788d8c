package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/log"
	"github.com/cuemby/ksm/pkg/metrics"
	"github.com/cuemby/ksm/pkg/storage"
	"github.com/cuemby/ksm/pkg/types"
)

const component = "transport"

const (
	// apiPrefix is the REST path every endpoint hangs off
	apiPrefix = "/api/rest/sm/v1/"

	// defaultTimeout bounds a single server call
	defaultTimeout = 60 * time.Second
)

// Transport performs the encrypted request/response exchange with the
// server: a fresh transmission key per call, ECIES-wrapped in the header,
// payload sealed with AES-GCM and signed with the client private key.
type Transport struct {
	store      storage.Store
	cache      storage.CacheStorage
	httpClient *http.Client
}

// Option configures a Transport
type Option func(*Transport)

// WithCache enables offline replay of the last get_secret response
func WithCache(cache storage.CacheStorage) Option {
	return func(t *Transport) {
		t.cache = cache
	}
}

// WithInsecureSkipVerify disables TLS certificate verification
func WithInsecureSkipVerify(skip bool) Option {
	return func(t *Transport) {
		if skip {
			t.httpClient.Transport = &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			}
		}
	}
}

// WithHTTPClient replaces the HTTP client (tests, custom proxies)
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transport) {
		t.httpClient = client
	}
}

// New creates a Transport over the given configuration store
func New(store storage.Store, opts ...Option) *Transport {
	t := &Transport{
		store:      store,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// transmissionKey is the per-request symmetric key and its wrapped form
type transmissionKey struct {
	keyID     string
	key       []byte
	encrypted []byte
}

// generateTransmissionKey wraps a fresh 32-byte key to the server public
// key named by keyID.
func generateTransmissionKey(keyID string) (*transmissionKey, error) {
	serverPub, err := ServerPublicKey(keyID)
	if err != nil {
		return nil, err
	}
	key, err := crypto.RandomBytes(crypto.TransmissionKeySize)
	if err != nil {
		return nil, err
	}
	encrypted, err := crypto.PublicEncrypt(key, serverPub, nil)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to wrap transmission key")
	}
	return &transmissionKey{keyID: keyID, key: key, encrypted: encrypted}, nil
}

// PostQuery serializes payload, encrypts and signs it, POSTs it to the
// endpoint path, and returns the decrypted response body. When the server
// answers with a key-rotation error the call is retried once under the
// key id it named. get_secret responses are mirrored into the offline
// cache when one is configured, and replayed from it on network failure.
func (t *Transport) PostQuery(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	logger := log.WithComponent(component)
	start := time.Now()

	keyID := t.store.Get(storage.KeyServerPublicKeyID)
	if keyID == "" {
		keyID = DefaultKeyID
		if err := t.store.Set(storage.KeyServerPublicKeyID, keyID); err != nil {
			return nil, err
		}
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindSerialization, component, err, "failed to serialize %s payload", path)
	}

	rotated := false
	for {
		tk, err := generateTransmissionKey(keyID)
		if err != nil {
			return nil, err
		}

		body, retryKeyID, err := t.postOnce(ctx, path, payloadJSON, tk)
		if err == nil {
			metrics.RequestsTotal.WithLabelValues(path, "ok").Inc()
			metrics.RequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
			return body, nil
		}

		if retryKeyID != "" && !rotated {
			// server asked for a different public key; persist and retry
			rotated = true
			keyID = retryKeyID
			metrics.KeyRotationsTotal.Inc()
			logger.Debug().Str("key_id", keyID).Msg("server requested public key rotation, retrying")
			if serr := t.store.Set(storage.KeyServerPublicKeyID, keyID); serr != nil {
				return nil, serr
			}
			continue
		}

		if path == "get_secret" && t.cache != nil && isNetworkError(err) {
			if cached, cerr := t.replayCache(); cerr == nil {
				logger.Warn().Err(err).Msg("network failure, serving cached response")
				metrics.RequestsTotal.WithLabelValues(path, "cache").Inc()
				metrics.CacheHitsTotal.Inc()
				return cached, nil
			}
		}

		metrics.RequestsTotal.WithLabelValues(path, "error").Inc()
		return nil, err
	}
}

// postOnce performs one signed POST. A non-empty second return names the
// key id the server wants the call retried under.
func (t *Transport) postOnce(ctx context.Context, path string, payloadJSON []byte, tk *transmissionKey) ([]byte, string, error) {
	hostname := t.store.Get(storage.KeyHostname)
	if hostname == "" {
		return nil, "", kerr.New(kerr.KindConfig, component, "hostname is not configured")
	}

	encryptedPayload, err := crypto.EncryptAESGCM(tk.key, payloadJSON)
	if err != nil {
		return nil, "", err
	}

	privDER, err := crypto.Base64ToBytes(t.store.Get(storage.KeyPrivateKey))
	if err != nil {
		return nil, "", kerr.Wrap(kerr.KindConfig, component, err, "invalid private key in configuration")
	}
	priv, err := crypto.LoadPrivateKeyDER(privDER)
	if err != nil {
		return nil, "", err
	}

	signatureBase := append(append([]byte{}, tk.encrypted...), encryptedPayload...)
	signature, err := crypto.Sign(priv, signatureBase)
	if err != nil {
		return nil, "", err
	}

	endpoint := "https://" + hostname + apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encryptedPayload))
	if err != nil {
		return nil, "", kerr.Wrap(kerr.KindHTTP, component, err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Length", fmt.Sprintf("%d", len(encryptedPayload)))
	req.Header.Set("PublicKeyId", tk.keyID)
	req.Header.Set("TransmissionKey", crypto.BytesToBase64(tk.encrypted))
	req.Header.Set("Authorization", "Signature "+crypto.BytesToBase64(signature))
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, "", kerr.Wrap(kerr.KindHTTP, component, err, "request to %s failed", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", kerr.Wrap(kerr.KindHTTP, component, err, "failed to read response from %s", path)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, t.retryKeyID(body), serverError(path, resp.StatusCode, body)
	}

	// empty response bodies are valid (mutation endpoints)
	if len(body) == 0 {
		return []byte{}, "", nil
	}

	plaintext, err := crypto.DecryptAESGCM(tk.key, body)
	if err != nil {
		return nil, "", kerr.Wrap(kerr.KindCrypto, component, err, "failed to decrypt response from %s", path)
	}

	if path == "get_secret" && t.cache != nil {
		// transmission key doubles as the replay decryption key
		if cerr := t.cache.SaveCachedValue(append(append([]byte{}, tk.key...), body...)); cerr != nil {
			logger := log.WithComponent(component)
			logger.Warn().Err(cerr).Msg("failed to write offline cache")
		}
	}

	return plaintext, "", nil
}

// isNetworkError distinguishes a failure to reach the server from a
// server-side rejection; only the former is replayable from cache.
func isNetworkError(err error) bool {
	var uerr *url.Error
	return errors.As(err, &uerr)
}

// retryKeyID extracts the rotation target from a key error body, or ""
func (t *Transport) retryKeyID(body []byte) string {
	var se types.ServerError
	if err := json.Unmarshal(body, &se); err != nil {
		return ""
	}
	if se.Code() != "key" {
		return ""
	}
	id := string(se.KeyID)
	if !IsKnownServerKeyID(id) {
		return ""
	}
	return id
}

// serverError maps a non-200 body to the right error kind
func serverError(path string, status int, body []byte) error {
	var se types.ServerError
	if err := json.Unmarshal(body, &se); err != nil || se.Code() == "" {
		return kerr.New(kerr.KindHTTP, component, "%s returned HTTP %d: %s", path, status, body)
	}
	switch se.Code() {
	case "key":
		return kerr.New(kerr.KindServerKeyRotation, component, "%s: server requested key id %s", path, se.KeyID)
	case "invalid_client_version":
		return kerr.New(kerr.KindInvalidClientVersion, component, "%s: %s", path, se.Message)
	default:
		return kerr.New(kerr.KindHTTP, component, "%s returned %s (HTTP %d): %s", path, se.Code(), status, se.Message)
	}
}

// replayCache decrypts the cached response: the first 32 bytes are the
// transmission key the ciphertext was received under.
func (t *Transport) replayCache() ([]byte, error) {
	cached, err := t.cache.GetCachedValue()
	if err != nil {
		return nil, err
	}
	if len(cached) < crypto.TransmissionKeySize {
		return nil, kerr.New(kerr.KindDecode, component, "cached response is truncated")
	}
	key, ciphertext := cached[:crypto.TransmissionKeySize], cached[crypto.TransmissionKeySize:]
	if len(ciphertext) == 0 {
		return []byte{}, nil
	}
	return crypto.DecryptAESGCM(key, ciphertext)
}
