package client

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/log"
	"github.com/cuemby/ksm/pkg/storage"
	"github.com/cuemby/ksm/pkg/types"
)

// CreateOptions places a new record: FolderUid names the shared folder
// the record key is wrapped under; SubFolderUid optionally nests it.
type CreateOptions struct {
	FolderUid    string
	SubFolderUid string
}

// UpdateOptions tunes an update: a transaction type for two-phase
// rotation and link UIDs to sever.
type UpdateOptions struct {
	TransactionType types.TransactionType
	Links2Remove    []string
}

// CreateSecret creates a record from a template dict inside a shared
// folder and returns the new record UID.
func (s *SecretsManager) CreateSecret(ctx context.Context, folderUid string, template map[string]interface{}) (string, error) {
	return s.CreateSecretWithOptions(ctx, CreateOptions{FolderUid: folderUid}, template)
}

// CreateSecretWithOptions is CreateSecret with sub-folder placement
func (s *SecretsManager) CreateSecretWithOptions(ctx context.Context, opts CreateOptions, template map[string]interface{}) (string, error) {
	if err := types.ValidateTemplate(template); err != nil {
		return "", err
	}

	folderKey, err := s.folderKey(ctx, opts.FolderUid)
	if err != nil {
		return "", err
	}
	ownerPub, err := s.ownerPublicKey()
	if err != nil {
		return "", err
	}

	recordUid, recordKey, err := newRecordIdentity()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(template)
	if err != nil {
		return "", kerr.Wrap(kerr.KindSerialization, component, err, "failed to serialize record template")
	}
	dataBlob, err := crypto.EncryptAESGCM(recordKey, data)
	if err != nil {
		return "", err
	}
	ownerWrapped, err := crypto.PublicEncrypt(recordKey, ownerPub, nil)
	if err != nil {
		return "", kerr.Wrap(kerr.KindCrypto, component, err, "failed to wrap record key to owner")
	}
	folderWrapped, err := crypto.EncryptAESGCM(folderKey, recordKey)
	if err != nil {
		return "", err
	}

	payload := types.CreatePayload{
		ClientVersion: ClientVersion,
		ClientId:      s.store.Get(storage.KeyClientID),
		RecordUid:     recordUid,
		RecordKey:     crypto.BytesToBase64(ownerWrapped),
		FolderUid:     opts.FolderUid,
		FolderKey:     crypto.BytesToBase64(folderWrapped),
		Data:          crypto.BytesToBase64(dataBlob),
		SubFolderUid:  opts.SubFolderUid,
	}
	if _, err := s.transport.PostQuery(ctx, "create_secret", payload); err != nil {
		return "", err
	}
	return recordUid, nil
}

// UpdateSecret re-encrypts the record's current dict and commits it
func (s *SecretsManager) UpdateSecret(ctx context.Context, r *types.Record) error {
	return s.UpdateSecretWithOptions(ctx, r, UpdateOptions{})
}

// UpdateSecretWithTransaction stages or commits depending on the
// transaction type; rotation stages until CompleteTransaction.
func (s *SecretsManager) UpdateSecretWithTransaction(ctx context.Context, r *types.Record, txType types.TransactionType) error {
	return s.UpdateSecretWithOptions(ctx, r, UpdateOptions{TransactionType: txType})
}

// UpdateSecretWithOptions posts the record's dict as its new data blob
func (s *SecretsManager) UpdateSecretWithOptions(ctx context.Context, r *types.Record, opts UpdateOptions) error {
	if len(r.RecordKey) != crypto.AESKeySize {
		return kerr.New(kerr.KindRecordData, component, "record %s has no usable record key", r.Uid)
	}
	data, err := r.MarshalData()
	if err != nil {
		return err
	}
	dataBlob, err := crypto.EncryptAESGCM(r.RecordKey, data)
	if err != nil {
		return err
	}

	payload := types.UpdatePayload{
		ClientVersion:   ClientVersion,
		ClientId:        s.store.Get(storage.KeyClientID),
		RecordUid:       r.Uid,
		Revision:        r.Revision,
		Data:            crypto.BytesToBase64(dataBlob),
		TransactionType: opts.TransactionType,
		Links2Remove:    opts.Links2Remove,
	}
	_, err = s.transport.PostQuery(ctx, "update_secret", payload)
	return err
}

// CompleteTransaction finishes a staged rotation update: commit when
// rollback is false, discard when true.
func (s *SecretsManager) CompleteTransaction(ctx context.Context, recordUid string, rollback bool) error {
	path := "finalize_secret_update"
	if rollback {
		path = "rollback_secret_update"
	}
	payload := types.CompleteTransactionPayload{
		ClientVersion: ClientVersion,
		ClientId:      s.store.Get(storage.KeyClientID),
		RecordUid:     recordUid,
	}
	_, err := s.transport.PostQuery(ctx, path, payload)
	return err
}

// DeleteSecrets removes records and returns the comma-joined UIDs the
// server confirmed; rejected UIDs are logged at ERROR.
func (s *SecretsManager) DeleteSecrets(ctx context.Context, uids []string) (string, error) {
	payload := types.DeletePayload{
		ClientVersion: ClientVersion,
		ClientId:      s.store.Get(storage.KeyClientID),
		RecordUids:    uids,
	}
	body, err := s.transport.PostQuery(ctx, "delete_secret", payload)
	if err != nil {
		return "", err
	}
	return joinDeleted(body, "record")
}

// CreateFolder creates a folder under a shared folder and returns its
// UID. parentUid optionally nests it below an existing sub-folder.
func (s *SecretsManager) CreateFolder(ctx context.Context, sharedFolderUid, name, parentUid string) (string, error) {
	sharedKey, err := s.folderKey(ctx, sharedFolderUid)
	if err != nil {
		return "", err
	}

	folderUid, folderKey, err := newRecordIdentity()
	if err != nil {
		return "", err
	}

	// folder keys and data ride CBC, unlike everything record-side
	wrappedKey, err := crypto.EncryptAESCBC(sharedKey, folderKey)
	if err != nil {
		return "", err
	}
	dataBlob, err := encryptFolderName(folderKey, name)
	if err != nil {
		return "", err
	}

	payload := types.CreateFolderPayload{
		ClientVersion:   ClientVersion,
		ClientId:        s.store.Get(storage.KeyClientID),
		FolderUid:       folderUid,
		SharedFolderUid: sharedFolderUid,
		SharedFolderKey: crypto.BytesToURLSafeStr(wrappedKey),
		Data:            crypto.BytesToURLSafeStr(dataBlob),
		ParentUid:       parentUid,
	}
	if _, err := s.transport.PostQuery(ctx, "create_folder", payload); err != nil {
		return "", err
	}
	return folderUid, nil
}

// UpdateFolder renames a folder
func (s *SecretsManager) UpdateFolder(ctx context.Context, folderUid, name string) error {
	folderKey, err := s.folderKey(ctx, folderUid)
	if err != nil {
		return err
	}
	dataBlob, err := encryptFolderName(folderKey, name)
	if err != nil {
		return err
	}
	payload := types.UpdateFolderPayload{
		ClientVersion: ClientVersion,
		ClientId:      s.store.Get(storage.KeyClientID),
		FolderUid:     folderUid,
		Data:          crypto.BytesToURLSafeStr(dataBlob),
	}
	_, err = s.transport.PostQuery(ctx, "update_folder", payload)
	return err
}

// DeleteFolder removes folders and returns the comma-joined UIDs the
// server confirmed. forceDeletion removes non-empty folders.
func (s *SecretsManager) DeleteFolder(ctx context.Context, uids []string, forceDeletion bool) (string, error) {
	payload := types.DeleteFolderPayload{
		ClientVersion: ClientVersion,
		ClientId:      s.store.Get(storage.KeyClientID),
		FolderUids:    uids,
		ForceDeletion: forceDeletion,
	}
	body, err := s.transport.PostQuery(ctx, "delete_folder", payload)
	if err != nil {
		return "", err
	}
	return joinDeleted(body, "folder")
}

// UploadFile encrypts and attaches a file to a record, consolidating
// any duplicate fileRef fields while it rewrites the record data.
// Returns the new file UID.
func (s *SecretsManager) UploadFile(ctx context.Context, owner *types.Record, upload *types.FileUpload) (string, error) {
	if len(owner.RecordKey) != crypto.AESKeySize {
		return "", kerr.New(kerr.KindRecordData, component, "record %s has no usable record key", owner.Uid)
	}
	ownerPub, err := s.ownerPublicKey()
	if err != nil {
		return "", err
	}

	fileUid, fileKey, err := newRecordIdentity()
	if err != nil {
		return "", err
	}

	meta, err := json.Marshal(map[string]interface{}{
		"name":  upload.Name,
		"size":  len(upload.Data),
		"type":  upload.Type,
		"title": upload.Title,
	})
	if err != nil {
		return "", kerr.Wrap(kerr.KindSerialization, component, err, "failed to serialize file metadata")
	}
	metaBlob, err := crypto.EncryptAESGCM(fileKey, meta)
	if err != nil {
		return "", err
	}
	ownerWrapped, err := crypto.PublicEncrypt(fileKey, ownerPub, nil)
	if err != nil {
		return "", kerr.Wrap(kerr.KindCrypto, component, err, "failed to wrap file key to owner")
	}
	linkKey, err := crypto.EncryptAESGCM(owner.RecordKey, fileKey)
	if err != nil {
		return "", err
	}
	encryptedBody, err := crypto.EncryptAESGCM(fileKey, upload.Data)
	if err != nil {
		return "", err
	}

	owner.ConsolidateFileRefs(fileUid)
	ownerData, err := owner.MarshalData()
	if err != nil {
		return "", err
	}
	ownerBlob, err := crypto.EncryptAESGCM(owner.RecordKey, ownerData)
	if err != nil {
		return "", err
	}

	payload := types.FileUploadPayload{
		ClientVersion:   ClientVersion,
		ClientId:        s.store.Get(storage.KeyClientID),
		FileRecordUid:   fileUid,
		FileRecordKey:   crypto.BytesToBase64(ownerWrapped),
		FileRecordData:  crypto.BytesToBase64(metaBlob),
		OwnerRecordUid:  owner.Uid,
		OwnerRecordData: crypto.BytesToBase64(ownerBlob),
		LinkKey:         crypto.BytesToBase64(linkKey),
		FileSize:        int64(len(encryptedBody)),
	}
	body, err := s.transport.PostQuery(ctx, "add_file", payload)
	if err != nil {
		return "", err
	}

	var resp types.AddFileResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", kerr.Wrap(kerr.KindSerialization, component, err, "failed to parse add_file response")
	}
	params, err := resp.UploadParameters()
	if err != nil {
		return "", kerr.Wrap(kerr.KindFile, component, err, "add_file response carries no usable parameters")
	}
	if err := s.transport.UploadMultipart(ctx, resp.Url, params, encryptedBody); err != nil {
		return "", err
	}
	return fileUid, nil
}

// folderKey locates a folder the client can see and returns its key
func (s *SecretsManager) folderKey(ctx context.Context, folderUid string) ([]byte, error) {
	if folderUid == "" {
		return nil, kerr.New(kerr.KindRecordData, component, "a folder uid is required")
	}
	_, folders, err := s.getSecretsAndFolders(ctx)
	if err != nil {
		return nil, err
	}
	for _, f := range folders {
		if f.Uid == folderUid {
			return f.FolderKey, nil
		}
	}
	return nil, kerr.New(kerr.KindRecordData, component, "folder %s is not shared to this client", folderUid)
}

// newRecordIdentity generates a fresh UID and 32-byte key
func newRecordIdentity() (string, []byte, error) {
	uid, err := crypto.GenerateUID()
	if err != nil {
		return "", nil, err
	}
	key, err := crypto.RandomBytes(crypto.AESKeySize)
	if err != nil {
		return "", nil, err
	}
	return uid, key, nil
}

func encryptFolderName(folderKey []byte, name string) ([]byte, error) {
	data, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, kerr.Wrap(kerr.KindSerialization, component, err, "failed to serialize folder data")
	}
	return crypto.EncryptAESCBC(folderKey, data)
}

// joinDeleted reduces a delete response to the comma-joined UIDs whose
// responseCode is ok; the rest are logged at ERROR.
func joinDeleted(body []byte, kind string) (string, error) {
	var resp types.DeleteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", kerr.Wrap(kerr.KindSerialization, component, err, "failed to parse delete response")
	}
	statuses := resp.Records
	if kind == "folder" {
		statuses = resp.Folders
	}

	logger := log.WithComponent(component)
	var ok []string
	for _, st := range statuses {
		if strings.EqualFold(st.ResponseCode, "ok") {
			ok = append(ok, st.RecordUid)
			continue
		}
		logger.Error().
			Str(kind+"_uid", st.RecordUid).
			Str("response_code", st.ResponseCode).
			Str("message", st.ErrorMessage).
			Msgf("%s was not deleted", kind)
	}
	return strings.Join(ok, ","), nil
}
