package types

import (
	"encoding/json"
	"fmt"
)

// TransactionType selects the update commit mode
type TransactionType string

const (
	// TransactionNone commits immediately (field omitted on the wire)
	TransactionNone TransactionType = ""

	// TransactionGeneral commits immediately, named explicitly
	TransactionGeneral TransactionType = "general"

	// TransactionRotation stages the update until finalize or rollback
	TransactionRotation TransactionType = "rotation"
)

// GetPayload requests records and folders (get_secret, get_folders)
type GetPayload struct {
	ClientVersion    string   `json:"clientVersion"`
	ClientId         string   `json:"clientId"`
	PublicKey        string   `json:"publicKey,omitempty"`
	RequestedRecords []string `json:"requestedRecords,omitempty"`
	RequestedFolders []string `json:"requestedFolders,omitempty"`
	RequestLinks     bool     `json:"requestLinks,omitempty"`
}

// UpdatePayload rewrites a record's data blob (update_secret)
type UpdatePayload struct {
	ClientVersion   string          `json:"clientVersion"`
	ClientId        string          `json:"clientId"`
	RecordUid       string          `json:"recordUid"`
	Revision        int64           `json:"revision"`
	Data            string          `json:"data"`
	TransactionType TransactionType `json:"transactionType,omitempty"`
	Links2Remove    []string        `json:"links2Remove,omitempty"`
}

// CompleteTransactionPayload finalizes or rolls back a staged update
// (finalize_secret_update, rollback_secret_update)
type CompleteTransactionPayload struct {
	ClientVersion string `json:"clientVersion"`
	ClientId      string `json:"clientId"`
	RecordUid     string `json:"recordUid"`
}

// CreatePayload creates a record inside a shared folder (create_secret)
type CreatePayload struct {
	ClientVersion string `json:"clientVersion"`
	ClientId      string `json:"clientId"`
	RecordUid     string `json:"recordUid"`
	RecordKey     string `json:"recordKey"`
	FolderUid     string `json:"folderUid"`
	FolderKey     string `json:"folderKey"`
	Data          string `json:"data"`
	SubFolderUid  string `json:"subFolderUid,omitempty"`
}

// DeletePayload removes records (delete_secret)
type DeletePayload struct {
	ClientVersion string   `json:"clientVersion"`
	ClientId      string   `json:"clientId"`
	RecordUids    []string `json:"recordUids"`
}

// CreateFolderPayload creates a sub-folder (create_folder)
type CreateFolderPayload struct {
	ClientVersion   string `json:"clientVersion"`
	ClientId        string `json:"clientId"`
	FolderUid       string `json:"folderUid"`
	SharedFolderUid string `json:"sharedFolderUid"`
	SharedFolderKey string `json:"sharedFolderKey"`
	Data            string `json:"data"`
	ParentUid       string `json:"parentUid,omitempty"`
}

// UpdateFolderPayload renames a folder (update_folder)
type UpdateFolderPayload struct {
	ClientVersion string `json:"clientVersion"`
	ClientId      string `json:"clientId"`
	FolderUid     string `json:"folderUid"`
	Data          string `json:"data"`
}

// DeleteFolderPayload removes folders (delete_folder)
type DeleteFolderPayload struct {
	ClientVersion string   `json:"clientVersion"`
	ClientId      string   `json:"clientId"`
	FolderUids    []string `json:"folderUids"`
	ForceDeletion bool     `json:"forceDeletion,omitempty"`
}

// FileUploadPayload registers a file and links it to a record (add_file)
type FileUploadPayload struct {
	ClientVersion  string `json:"clientVersion"`
	ClientId       string `json:"clientId"`
	FileRecordUid  string `json:"fileRecordUid"`
	FileRecordKey  string `json:"fileRecordKey"`
	FileRecordData string `json:"fileRecordData"`
	OwnerRecordUid string `json:"ownerRecordUid"`
	OwnerRecordData string `json:"ownerRecordData"`
	LinkKey        string `json:"linkKey"`
	FileSize       int64  `json:"fileSize"`
}

// RecordEnvelope is the encrypted record as it arrives from the server
type RecordEnvelope struct {
	RecordUid      string           `json:"recordUid"`
	RecordKey      string           `json:"recordKey,omitempty"`
	Data           string           `json:"data"`
	Revision       int64            `json:"revision"`
	IsEditable     bool             `json:"isEditable"`
	InnerFolderUid string           `json:"innerFolderUid,omitempty"`
	Files          []FileEnvelope   `json:"files,omitempty"`
	Links          []RecordLink     `json:"links,omitempty"`
}

// FileEnvelope is the encrypted file metadata as it arrives from the server
type FileEnvelope struct {
	FileUid      string `json:"fileUid"`
	FileKey      string `json:"fileKey"`
	Data         string `json:"data"`
	Url          string `json:"url,omitempty"`
	ThumbnailUrl string `json:"thumbnailUrl,omitempty"`
}

// FolderEnvelope is the encrypted folder as it arrives from the server
type FolderEnvelope struct {
	FolderUid string           `json:"folderUid"`
	Parent    string           `json:"parent,omitempty"`
	FolderKey string           `json:"folderKey"`
	Data      string           `json:"data,omitempty"`
	Records   []RecordEnvelope `json:"records,omitempty"`
}

// GetResponse is the plaintext shape of a get_secret / get_folders reply
type GetResponse struct {
	EncryptedAppKey   string           `json:"encryptedAppKey,omitempty"`
	AppOwnerPublicKey string           `json:"appOwnerPublicKey,omitempty"`
	AppData           string           `json:"appData,omitempty"`
	ExpiresOn         int64            `json:"expiresOn,omitempty"`
	Warnings          []string         `json:"warnings,omitempty"`
	Records           []RecordEnvelope `json:"records,omitempty"`
	Folders           []FolderEnvelope `json:"folders,omitempty"`
}

// AppData is the decrypted application metadata
type AppData struct {
	Title string `json:"title"`
	Type  string `json:"type"`
}

// DeleteStatus is the per-record result of a delete_secret call
type DeleteStatus struct {
	RecordUid    string `json:"recordUid"`
	ResponseCode string `json:"responseCode"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// DeleteResponse is the reply to delete_secret / delete_folder
type DeleteResponse struct {
	Records []DeleteStatus `json:"records,omitempty"`
	Folders []DeleteStatus `json:"folders,omitempty"`
}

// AddFileResponse is the reply to add_file: where to POST the multipart
// body and which form fields to carry.
type AddFileResponse struct {
	Url               string          `json:"url"`
	Parameters        json.RawMessage `json:"parameters"`
	SuccessStatusCode int             `json:"successStatusCode,omitempty"`
}

// UploadParameters decodes the multipart form fields. The server sends
// either a JSON object or a JSON-encoded string containing one.
func (r *AddFileResponse) UploadParameters() (map[string]string, error) {
	raw := r.Parameters
	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		raw = json.RawMessage(asString)
	}
	params := map[string]string{}
	var generic map[string]interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to parse upload parameters: %w", err)
	}
	for k, v := range generic {
		params[k] = fmt.Sprintf("%v", v)
	}
	return params, nil
}

// FlexibleID accepts a JSON string or number; the server is not
// consistent about how it sends key_id.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("key id is neither string nor number: %s", b)
	}
	*f = FlexibleID(n.String())
	return nil
}

// ServerError is the body of a non-200 reply
type ServerError struct {
	ResultCode     string     `json:"result_code,omitempty"`
	Error          string     `json:"error,omitempty"`
	Message        string     `json:"message,omitempty"`
	KeyID          FlexibleID `json:"key_id,omitempty"`
	AdditionalInfo string     `json:"additional_info,omitempty"`
}

// Code returns result_code, falling back to error
func (e *ServerError) Code() string {
	if e.ResultCode != "" {
		return e.ResultCode
	}
	return e.Error
}
