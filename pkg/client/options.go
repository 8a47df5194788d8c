package client

import (
	"os"
	"strings"

	"github.com/cuemby/ksm/pkg/storage"
)

// ClientVersion is sent with every request; servers gate features on it
const ClientVersion = "mg16.6.4"

// Environment variables read once at construction time
const (
	EnvToken      = "KSM_TOKEN"
	EnvConfig     = "KSM_CONFIG"
	EnvSkipVerify = "KSM_SKIP_VERIFY"
)

// ClientOptions configures a SecretsManager. Token is required only the
// first time a configuration is used; once bound, the stored clientId
// takes over and Token may be omitted or repeated.
type ClientOptions struct {
	// Token is the one-time token, optionally prefixed "REGION:".
	// Falls back to KSM_TOKEN when empty.
	Token string

	// Hostname names the server when the token carries no region alias.
	Hostname string

	// Config is the backing store. When nil, KSM_CONFIG (a base64 JSON
	// config) is used if set, otherwise a file store at
	// client-config.json.
	Config storage.Store

	// Cache enables offline replay of the last get_secret response.
	Cache storage.CacheStorage

	// InsecureSkipVerify disables TLS certificate verification.
	// KSM_SKIP_VERIFY=TRUE has the same effect.
	InsecureSkipVerify bool
}

func envBool(name string) bool {
	return strings.EqualFold(os.Getenv(name), "true")
}

// resolveStore picks the configuration store per the option precedence
func resolveStore(opts *ClientOptions) (storage.Store, error) {
	if opts.Config != nil {
		return opts.Config, nil
	}
	if raw := os.Getenv(EnvConfig); raw != "" {
		return storage.NewMemoryStoreFromConfig(raw)
	}
	return storage.NewFileStore(storage.DefaultConfigFile)
}
