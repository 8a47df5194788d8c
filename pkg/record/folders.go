package record

import (
	"encoding/json"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/log"
	"github.com/cuemby/ksm/pkg/metrics"
	"github.com/cuemby/ksm/pkg/types"
)

// folderResolver unwraps folder keys across the tree. Root (shared)
// folder keys are GCM-wrapped under the app key; sub-folder keys are
// CBC-wrapped under their parent folder key, so resolution walks up the
// parent chain, with cycle detection, before coming back down.
type folderResolver struct {
	appKey    []byte
	envelopes map[string]*types.FolderEnvelope
	keys      map[string][]byte
}

func (fr *folderResolver) resolve(uid string, visited map[string]bool) ([]byte, error) {
	if key, ok := fr.keys[uid]; ok {
		return key, nil
	}
	if visited[uid] {
		return nil, kerr.New(kerr.KindCrypto, component, "folder %s: parent cycle detected", uid)
	}
	visited[uid] = true

	env, ok := fr.envelopes[uid]
	if !ok {
		return nil, kerr.New(kerr.KindCrypto, component, "folder %s: referenced but not present in response", uid)
	}

	blob, err := crypto.Base64ToBytes(env.FolderKey)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "folder %s: invalid folder key encoding", uid)
	}

	var key []byte
	if env.Parent == "" {
		key, err = crypto.DecryptAESGCM(fr.appKey, blob)
		if err != nil {
			return nil, kerr.Wrap(kerr.KindCrypto, component, err, "folder %s: failed to decrypt shared folder key", uid)
		}
	} else {
		parentKey, err := fr.resolve(env.Parent, visited)
		if err != nil {
			return nil, err
		}
		key, err = crypto.DecryptAESCBCUnpad(parentKey, blob)
		if err != nil {
			return nil, kerr.Wrap(kerr.KindCrypto, component, err, "folder %s: failed to decrypt sub-folder key", uid)
		}
	}
	if len(key) != crypto.AESKeySize {
		return nil, kerr.New(kerr.KindCrypto, component, "folder %s: folder key is %d bytes, want %d", uid, len(key), crypto.AESKeySize)
	}

	fr.keys[uid] = key
	return key, nil
}

// decodeFolders unwraps every folder in the response and decodes the
// records carried inside them. Failed folders are dropped with an error
// log, matching the record policy.
func decodeFolders(envs []types.FolderEnvelope, appKey []byte, appendRecord func(*types.Record)) []*types.Folder {
	logger := log.WithComponent(component)

	fr := &folderResolver{
		appKey:    appKey,
		envelopes: make(map[string]*types.FolderEnvelope, len(envs)),
		keys:      make(map[string][]byte),
	}
	for i := range envs {
		fr.envelopes[envs[i].FolderUid] = &envs[i]
	}

	var folders []*types.Folder
	for i := range envs {
		env := &envs[i]
		folderKey, err := fr.resolve(env.FolderUid, map[string]bool{})
		if err != nil {
			logger.Error().Err(err).Str("folder_uid", env.FolderUid).Msg("failed to decode folder, skipping")
			continue
		}

		folder := &types.Folder{
			Uid:       env.FolderUid,
			ParentUid: env.Parent,
			FolderKey: folderKey,
		}

		if env.Data != "" {
			name, err := decodeFolderData(env.Data, folderKey)
			if err != nil {
				logger.Error().Err(err).Str("folder_uid", env.FolderUid).Msg("failed to decode folder data, skipping")
				continue
			}
			folder.Name = name
		}
		folders = append(folders, folder)

		for _, renv := range env.Records {
			r, err := DecodeRecord(renv, folderKey)
			if err != nil {
				logger.Error().Err(err).Str("record_uid", renv.RecordUid).Msg("failed to decode folder record, skipping")
				metrics.RecordsDroppedTotal.Inc()
				continue
			}
			r.FolderUid = env.FolderUid
			r.FolderKey = append([]byte{}, folderKey...)
			appendRecord(r)
		}
	}
	return folders
}

// decodeFolderData decrypts the CBC folder payload and extracts the name
func decodeFolderData(encoded string, folderKey []byte) (string, error) {
	blob, err := crypto.Base64ToBytes(encoded)
	if err != nil {
		return "", kerr.Wrap(kerr.KindDecode, component, err, "invalid folder data encoding")
	}
	plaintext, err := crypto.DecryptAESCBCUnpad(folderKey, blob)
	if err != nil {
		return "", kerr.Wrap(kerr.KindCrypto, component, err, "failed to decrypt folder data")
	}
	var data struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return "", kerr.Wrap(kerr.KindSerialization, component, err, "folder data is not valid JSON")
	}
	return data.Name, nil
}
