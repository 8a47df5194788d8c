package types

// KeeperFile is a file attached to a record. The encrypted bytes live in
// object storage behind Url; the metadata here is already decrypted.
type KeeperFile struct {
	Uid          string
	Name         string
	Title        string
	Type         string
	Size         int64
	LastModified int64

	// FileKey decrypts the file body and thumbnail
	FileKey []byte

	Url          string
	ThumbnailUrl string

	// data caches the decrypted body after the first download
	data []byte
}

// CachedData returns the decrypted body cached by a previous download,
// or nil when the body has not been fetched yet.
func (f *KeeperFile) CachedData() []byte {
	return f.data
}

// SetCachedData stores the decrypted body for later accesses
func (f *KeeperFile) SetCachedData(data []byte) {
	f.data = data
}

// Zeroize overwrites the file key and any cached plaintext
func (f *KeeperFile) Zeroize() {
	for i := range f.FileKey {
		f.FileKey[i] = 0
	}
	for i := range f.data {
		f.data[i] = 0
	}
}

// Folder is a decrypted folder node. Top-level (shared) folder keys are
// wrapped with the app key using AES-GCM; sub-folder keys are wrapped
// with the parent folder key using AES-CBC.
type Folder struct {
	Uid       string
	ParentUid string
	Name      string

	// FolderKey wraps the keys of records and sub-folders inside
	FolderKey []byte
}

// FileUpload describes a file about to be uploaded to a record
type FileUpload struct {
	Name  string
	Title string
	Type  string
	Data  []byte
}
