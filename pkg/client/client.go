package client

import (
	"context"
	"os"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/log"
	"github.com/cuemby/ksm/pkg/record"
	"github.com/cuemby/ksm/pkg/storage"
	"github.com/cuemby/ksm/pkg/transport"
	"github.com/cuemby/ksm/pkg/types"
)

const component = "client"

// clientIDLabel is the HMAC-SHA-512 label that derives a clientId from
// the token secret.
const clientIDLabel = "KEEPER_SECRETS_MANAGER_CLIENT_ID"

// SecretsManager is the client facade. Construct with NewSecretsManager;
// a zero value is not usable. Instances are safe to share across
// goroutines when the backing Store is (both bundled stores are).
type SecretsManager struct {
	store     storage.Store
	transport *transport.Transport
}

// NewSecretsManager builds a client and drives the configuration to a
// usable state: a fresh store plus token is initialized in place, a
// bound store is validated, and a token that disagrees with the stored
// identity is rejected.
func NewSecretsManager(opts *ClientOptions) (*SecretsManager, error) {
	if opts == nil {
		opts = &ClientOptions{}
	}

	store, err := resolveStore(opts)
	if err != nil {
		return nil, err
	}

	token := opts.Token
	if token == "" {
		token = os.Getenv(EnvToken)
	}

	if err := bind(store, token, opts.Hostname); err != nil {
		return nil, err
	}

	topts := []transport.Option{
		transport.WithInsecureSkipVerify(opts.InsecureSkipVerify || envBool(EnvSkipVerify)),
	}
	if opts.Cache != nil {
		topts = append(topts, transport.WithCache(opts.Cache))
	}

	return &SecretsManager{
		store:     store,
		transport: transport.New(store, topts...),
	}, nil
}

// clientIDFromSecret derives the clientId a token secret binds to
func clientIDFromSecret(secretBytes []byte) string {
	return crypto.BytesToBase64(crypto.HMACSHA512(secretBytes, []byte(clientIDLabel)))
}

// bind initializes or validates the stored identity. A store with no
// clientId needs a token; a bound store accepts a matching token
// silently and rejects a mismatched one.
func bind(store storage.Store, token, hostname string) error {
	existing := store.Get(storage.KeyClientID)

	if existing != "" {
		if token != "" {
			_, secret, err := types.ParseToken(token)
			if err != nil {
				return err
			}
			secretBytes, err := crypto.URLSafeStrToBytes(secret)
			if err != nil {
				return kerr.Wrap(kerr.KindDecode, component, err, "token secret is not valid base64")
			}
			if clientIDFromSecret(secretBytes) != existing {
				return kerr.New(kerr.KindBindingConflict, component,
					"token does not match the client this configuration is bound to")
			}
		}
		if store.Get(storage.KeyPrivateKey) == "" {
			return kerr.New(kerr.KindConfig, component, "configuration has a clientId but no private key")
		}
		if store.Get(storage.KeyHostname) == "" {
			return kerr.New(kerr.KindConfig, component, "configuration has no hostname")
		}
		return nil
	}

	// fresh store
	if token == "" {
		return kerr.New(kerr.KindConfig, component, "a one-time token is required to initialize a new configuration")
	}
	tokenHost, secret, err := types.ParseToken(token)
	if err != nil {
		return err
	}
	if tokenHost == "" {
		tokenHost = hostname
	}
	if tokenHost == "" {
		return kerr.New(kerr.KindConfig, component, "token carries no region alias and no hostname was given")
	}
	secretBytes, err := crypto.URLSafeStrToBytes(secret)
	if err != nil {
		return kerr.Wrap(kerr.KindDecode, component, err, "token secret is not valid base64")
	}

	privDER, err := crypto.GeneratePrivateKeyDER()
	if err != nil {
		return err
	}

	values := map[storage.ConfigKey]string{
		storage.KeyClientID:          clientIDFromSecret(secretBytes),
		storage.KeyClientKey:         secret,
		storage.KeyHostname:          tokenHost,
		storage.KeyPrivateKey:        crypto.BytesToBase64(privDER),
		storage.KeyServerPublicKeyID: transport.DefaultKeyID,
	}
	if err := store.SaveAll(values); err != nil {
		return err
	}
	logger := log.WithComponent(component)
	logger.Info().Str("hostname", tokenHost).Msg("initialized new client configuration")
	return nil
}

// GetSecrets fetches and decrypts records, filtered to the given UIDs
// when the list is non-empty. It also completes the one-time binding on
// the first call after initialization.
func (s *SecretsManager) GetSecrets(ctx context.Context, uids []string) ([]*types.Record, error) {
	records, _, err := s.fetch(ctx, "get_secret", uids, nil, true)
	return records, err
}

// GetSecretByUid fetches a single record
func (s *SecretsManager) GetSecretByUid(ctx context.Context, uid string) (*types.Record, error) {
	records, err := s.GetSecrets(ctx, []string{uid})
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		if r.Uid == uid {
			return r, nil
		}
	}
	return nil, kerr.New(kerr.KindRecordData, component, "record %s was not returned", uid)
}

// GetSecretsByTitle fetches every record with the exact title
func (s *SecretsManager) GetSecretsByTitle(ctx context.Context, title string) ([]*types.Record, error) {
	records, err := s.GetSecrets(ctx, nil)
	if err != nil {
		return nil, err
	}
	var out []*types.Record
	for _, r := range records {
		if r.Title == title {
			out = append(out, r)
		}
	}
	return out, nil
}

// GetSecretByTitle fetches the first record with the exact title
func (s *SecretsManager) GetSecretByTitle(ctx context.Context, title string) (*types.Record, error) {
	records, err := s.GetSecretsByTitle(ctx, title)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, kerr.New(kerr.KindRecordData, component, "no record titled %q", title)
	}
	return records[0], nil
}

// GetFolders fetches the folder tree
func (s *SecretsManager) GetFolders(ctx context.Context) ([]*types.Folder, error) {
	_, folders, err := s.fetch(ctx, "get_folders", nil, nil, true)
	return folders, err
}

// getSecretsAndFolders is the full fetch used by mutations that need
// folder keys.
func (s *SecretsManager) getSecretsAndFolders(ctx context.Context) ([]*types.Record, []*types.Folder, error) {
	return s.fetch(ctx, "get_secret", nil, nil, true)
}

// fetch runs one get round-trip, binding the app key first if the
// response carries one. allowRebind limits the post-bind re-fetch to a
// single extra round-trip.
func (s *SecretsManager) fetch(ctx context.Context, path string, uids, folderUids []string, allowRebind bool) ([]*types.Record, []*types.Folder, error) {
	logger := log.WithComponent(component)

	payload := types.GetPayload{
		ClientVersion:    ClientVersion,
		ClientId:         s.store.Get(storage.KeyClientID),
		RequestedRecords: uids,
		RequestedFolders: folderUids,
	}
	bound := s.store.Contains(storage.KeyAppKey)
	if !bound {
		// unbound: send our public key so the server can register it
		privDER, err := crypto.Base64ToBytes(s.store.Get(storage.KeyPrivateKey))
		if err != nil {
			return nil, nil, kerr.Wrap(kerr.KindConfig, component, err, "invalid private key in configuration")
		}
		pub, err := crypto.PublicKeyFromDER(privDER)
		if err != nil {
			return nil, nil, err
		}
		payload.PublicKey = crypto.BytesToURLSafeStr(pub)
	}

	plaintext, err := s.transport.PostQuery(ctx, path, payload)
	if err != nil {
		return nil, nil, err
	}
	resp, err := record.ParseResponse(plaintext)
	if err != nil {
		return nil, nil, err
	}

	if resp.EncryptedAppKey != "" {
		if err := s.bindAppKey(resp); err != nil {
			return nil, nil, err
		}
		if len(resp.Records) > 0 || len(resp.Folders) > 0 {
			// first-round record keys were wrapped before we bound;
			// fetch again under the app key
			if !allowRebind {
				return nil, nil, kerr.New(kerr.KindCrypto, component, "server kept returning a binding response")
			}
			logger.Debug().Msg("bound app key, re-fetching records")
			return s.fetch(ctx, path, uids, folderUids, false)
		}
		return nil, nil, nil
	}

	appKey, err := s.appKey()
	if err != nil {
		return nil, nil, err
	}
	if resp.AppOwnerPublicKey != "" && !s.store.Contains(storage.KeyOwnerPublicKey) {
		if err := s.store.Set(storage.KeyOwnerPublicKey, resp.AppOwnerPublicKey); err != nil {
			return nil, nil, err
		}
	}

	records, folders := record.DecodeSecrets(resp, appKey)
	return records, folders, nil
}

// bindAppKey completes the one-time binding: the encrypted app key is
// unwrapped with the original token secret, persisted, and the
// single-use clientKey is removed.
func (s *SecretsManager) bindAppKey(resp *types.GetResponse) error {
	secret := s.store.Get(storage.KeyClientKey)
	if secret == "" {
		return kerr.New(kerr.KindConfig, component, "server sent a binding response but no client key is stored")
	}
	secretBytes, err := crypto.URLSafeStrToBytes(secret)
	if err != nil {
		return kerr.Wrap(kerr.KindDecode, component, err, "stored client key is not valid base64")
	}
	wrapped, err := crypto.Base64ToBytes(resp.EncryptedAppKey)
	if err != nil {
		return kerr.Wrap(kerr.KindDecode, component, err, "encrypted app key is not valid base64")
	}
	appKey, err := crypto.DecryptAESGCM(secretBytes, wrapped)
	if err != nil {
		return err
	}

	if err := s.store.Set(storage.KeyAppKey, crypto.BytesToURLSafeStr(appKey)); err != nil {
		return err
	}
	if resp.AppOwnerPublicKey != "" {
		if err := s.store.Set(storage.KeyOwnerPublicKey, resp.AppOwnerPublicKey); err != nil {
			return err
		}
	}
	if err := s.store.Delete(storage.KeyClientKey); err != nil {
		return err
	}
	logger := log.WithComponent(component)
	logger.Info().Msg("completed one-time binding")
	return nil
}

// appKey returns the bound application key
func (s *SecretsManager) appKey() ([]byte, error) {
	raw := s.store.Get(storage.KeyAppKey)
	if raw == "" {
		return nil, kerr.New(kerr.KindConfig, component, "client is not bound yet")
	}
	key, err := crypto.Base64ToBytes(raw)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "stored app key is not valid base64")
	}
	return key, nil
}

// ownerPublicKey returns the application owner's public key, needed to
// wrap new record and file keys.
func (s *SecretsManager) ownerPublicKey() ([]byte, error) {
	raw := s.store.Get(storage.KeyOwnerPublicKey)
	if raw == "" {
		return nil, kerr.New(kerr.KindConfig, component, "no application owner public key; fetch secrets at least once first")
	}
	key, err := crypto.Base64ToBytes(raw)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "stored owner public key is not valid base64")
	}
	return key, nil
}
