package record

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/log"
	"github.com/cuemby/ksm/pkg/metrics"
	"github.com/cuemby/ksm/pkg/types"
)

const component = "record"

// ParseResponse parses the decrypted get_secret / get_folders plaintext
// into its envelope form. No record decryption happens here.
func ParseResponse(plaintext []byte) (*types.GetResponse, error) {
	resp := &types.GetResponse{}
	if len(plaintext) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(plaintext, resp); err != nil {
		return nil, kerr.Wrap(kerr.KindSerialization, component, err, "failed to parse secrets response")
	}
	return resp, nil
}

// DecodeRecord decrypts a record envelope. contextKey is the app key for
// top-level records and the folder key for folder-scoped records; when
// the envelope carries no recordKey the context key IS the record key
// (single-record share).
func DecodeRecord(env types.RecordEnvelope, contextKey []byte) (*types.Record, error) {
	recordKey := contextKey
	if env.RecordKey != "" {
		blob, err := crypto.Base64ToBytes(env.RecordKey)
		if err != nil {
			return nil, kerr.Wrap(kerr.KindDecode, component, err, "record %s: invalid record key encoding", env.RecordUid)
		}
		recordKey, err = crypto.DecryptAESGCM(contextKey, blob)
		if err != nil {
			return nil, kerr.Wrap(kerr.KindCrypto, component, err, "record %s: failed to decrypt record key", env.RecordUid)
		}
		if len(recordKey) != crypto.AESKeySize {
			return nil, kerr.New(kerr.KindCrypto, component, "record %s: record key is %d bytes, want %d", env.RecordUid, len(recordKey), crypto.AESKeySize)
		}
	} else {
		recordKey = append([]byte{}, contextKey...)
	}

	dataBlob, err := crypto.Base64ToBytes(env.Data)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "record %s: invalid data encoding", env.RecordUid)
	}
	plaintext, err := crypto.DecryptAESGCM(recordKey, dataBlob)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "record %s: failed to decrypt record data", env.RecordUid)
	}
	if !utf8.Valid(plaintext) {
		return nil, kerr.New(kerr.KindDecode, component, "record %s: data is not valid UTF-8", env.RecordUid)
	}

	var dict map[string]interface{}
	if err := json.Unmarshal(plaintext, &dict); err != nil {
		return nil, kerr.Wrap(kerr.KindSerialization, component, err, "record %s: data is not valid JSON", env.RecordUid)
	}

	r := &types.Record{
		Uid:            env.RecordUid,
		Revision:       env.Revision,
		IsEditable:     env.IsEditable,
		InnerFolderUid: env.InnerFolderUid,
		RecordKey:      recordKey,
		RecordDict:     dict,
		RawJSON:        plaintext,
		Links:          env.Links,
	}
	r.Title, _ = dict["title"].(string)
	r.Type, _ = dict["type"].(string)

	// convenience copy, login records only
	if r.Type == "login" {
		if value := types.FieldValue(r.FieldByType("password")); len(value) > 0 {
			r.Password, _ = value[0].(string)
		}
	}

	for _, fenv := range env.Files {
		file, err := decodeFile(fenv, recordKey)
		if err != nil {
			logger := log.WithComponent(component)
			logger.Error().Err(err).
				Str("record_uid", env.RecordUid).
				Str("file_uid", fenv.FileUid).
				Msg("failed to decode file, skipping")
			continue
		}
		r.Files = append(r.Files, file)
	}

	return r, nil
}

func decodeFile(env types.FileEnvelope, recordKey []byte) (*types.KeeperFile, error) {
	keyBlob, err := crypto.Base64ToBytes(env.FileKey)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "file %s: invalid file key encoding", env.FileUid)
	}
	fileKey, err := crypto.DecryptAESGCM(recordKey, keyBlob)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "file %s: failed to decrypt file key", env.FileUid)
	}
	if len(fileKey) != crypto.AESKeySize {
		return nil, kerr.New(kerr.KindCrypto, component, "file %s: file key is %d bytes, want %d", env.FileUid, len(fileKey), crypto.AESKeySize)
	}

	dataBlob, err := crypto.Base64ToBytes(env.Data)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "file %s: invalid metadata encoding", env.FileUid)
	}
	plaintext, err := crypto.DecryptAESGCM(fileKey, dataBlob)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "file %s: failed to decrypt metadata", env.FileUid)
	}

	var meta struct {
		Name         string `json:"name"`
		Title        string `json:"title"`
		Type         string `json:"type"`
		Size         int64  `json:"size"`
		LastModified int64  `json:"lastModified"`
	}
	if err := json.Unmarshal(plaintext, &meta); err != nil {
		return nil, kerr.Wrap(kerr.KindSerialization, component, err, "file %s: metadata is not valid JSON", env.FileUid)
	}

	return &types.KeeperFile{
		Uid:          env.FileUid,
		Name:         meta.Name,
		Title:        meta.Title,
		Type:         meta.Type,
		Size:         meta.Size,
		LastModified: meta.LastModified,
		FileKey:      fileKey,
		Url:          env.Url,
		ThumbnailUrl: env.ThumbnailUrl,
	}, nil
}

// DecodeAppData decrypts the application metadata blob under the app key
func DecodeAppData(encoded string, appKey []byte) (*types.AppData, error) {
	blob, err := crypto.Base64ToBytes(encoded)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindDecode, component, err, "invalid appData encoding")
	}
	plaintext, err := crypto.DecryptAESGCM(appKey, blob)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindCrypto, component, err, "failed to decrypt appData")
	}
	appData := &types.AppData{}
	if err := json.Unmarshal(plaintext, appData); err != nil {
		return nil, kerr.Wrap(kerr.KindSerialization, component, err, "appData is not valid JSON")
	}
	return appData, nil
}

// DecodeSecrets materializes the full object graph from a parsed
// response: top-level records under the app key, then every folder tree
// with its records. A record or folder that fails to decode is dropped
// with an error log; one bad entry does not fail the fetch.
func DecodeSecrets(resp *types.GetResponse, appKey []byte) ([]*types.Record, []*types.Folder) {
	logger := log.WithComponent(component)

	for _, w := range resp.Warnings {
		logger.Warn().Msg(w)
	}

	var records []*types.Record
	seen := map[string]bool{}

	appendRecord := func(r *types.Record) {
		if seen[r.Uid] {
			logger.Error().Str("record_uid", r.Uid).Msg("duplicate record uid in response, dropping")
			metrics.RecordsDroppedTotal.Inc()
			return
		}
		seen[r.Uid] = true
		records = append(records, r)
		metrics.RecordsDecodedTotal.Inc()
	}

	for _, env := range resp.Records {
		r, err := DecodeRecord(env, appKey)
		if err != nil {
			logger.Error().Err(err).Str("record_uid", env.RecordUid).Msg("failed to decode record, skipping")
			metrics.RecordsDroppedTotal.Inc()
			continue
		}
		appendRecord(r)
	}

	folders := decodeFolders(resp.Folders, appKey, appendRecord)
	return records, folders
}
