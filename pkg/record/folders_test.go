package record

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/types"
)

// encryptFolderEnvelope builds a server-side folder envelope. Root
// folders wrap their key under the app key with GCM; sub-folders wrap
// under the parent key with CBC.
func encryptFolderEnvelope(t *testing.T, uid, parent, name string, folderKey, wrapKey []byte) types.FolderEnvelope {
	t.Helper()

	var keyBlob []byte
	var err error
	if parent == "" {
		keyBlob, err = crypto.EncryptAESGCM(wrapKey, folderKey)
	} else {
		keyBlob, err = crypto.EncryptAESCBC(wrapKey, folderKey)
	}
	if err != nil {
		t.Fatal(err)
	}

	data, _ := json.Marshal(map[string]string{"name": name})
	dataBlob, err := crypto.EncryptAESCBC(folderKey, data)
	if err != nil {
		t.Fatal(err)
	}

	return types.FolderEnvelope{
		FolderUid: uid,
		Parent:    parent,
		FolderKey: crypto.BytesToURLSafeStr(keyBlob),
		Data:      crypto.BytesToURLSafeStr(dataBlob),
	}
}

func TestDecodeFolderTree(t *testing.T) {
	appKey := mustRandomKey(t)
	f1Key := mustRandomKey(t)
	f2Key := mustRandomKey(t)
	f3Key := mustRandomKey(t)
	recordKey := mustRandomKey(t)

	f1 := encryptFolderEnvelope(t, "F1", "", "root", f1Key, appKey)
	f2 := encryptFolderEnvelope(t, "F2", "F1", "child", f2Key, f1Key)
	f3 := encryptFolderEnvelope(t, "F3", "F2", "grandchild", f3Key, f2Key)

	// a record inside F2, its record key wrapped under F2's folder key
	f2.Records = []types.RecordEnvelope{
		encryptRecordEnvelope(t, "rec-in-f2", loginDict("folder secret", "pw"), recordKey, f2Key),
	}

	// deliberately out of order: children listed before the root
	records, folders := DecodeSecrets(&types.GetResponse{
		Folders: []types.FolderEnvelope{f3, f2, f1},
	}, appKey)

	if len(folders) != 3 {
		t.Fatalf("folder count = %d, want 3", len(folders))
	}
	byUid := map[string]*types.Folder{}
	for _, f := range folders {
		byUid[f.Uid] = f
	}

	tests := []struct {
		uid    string
		parent string
		name   string
		key    []byte
	}{
		{uid: "F1", parent: "", name: "root", key: f1Key},
		{uid: "F2", parent: "F1", name: "child", key: f2Key},
		{uid: "F3", parent: "F2", name: "grandchild", key: f3Key},
	}
	for _, tt := range tests {
		f := byUid[tt.uid]
		if f == nil {
			t.Fatalf("folder %s missing", tt.uid)
		}
		if f.Name != tt.name || f.ParentUid != tt.parent {
			t.Errorf("folder %s = name %q parent %q", tt.uid, f.Name, f.ParentUid)
		}
		if !bytes.Equal(f.FolderKey, tt.key) {
			t.Errorf("folder %s key was not unwrapped correctly", tt.uid)
		}
	}

	if len(records) != 1 {
		t.Fatalf("record count = %d, want 1", len(records))
	}
	r := records[0]
	if r.Uid != "rec-in-f2" || r.Title != "folder secret" {
		t.Errorf("folder record = %q/%q", r.Uid, r.Title)
	}
	if r.FolderUid != "F2" {
		t.Errorf("record FolderUid = %q, want F2", r.FolderUid)
	}
	if !bytes.Equal(r.FolderKey, f2Key) {
		t.Error("record folder key mismatch")
	}
}

func TestDecodeFolderCycle(t *testing.T) {
	appKey := mustRandomKey(t)
	aKey := mustRandomKey(t)
	bKey := mustRandomKey(t)

	// A claims parent B, B claims parent A; resolution must terminate
	a := encryptFolderEnvelope(t, "A", "B", "a", aKey, bKey)
	b := encryptFolderEnvelope(t, "B", "A", "b", bKey, aKey)

	_, folders := DecodeSecrets(&types.GetResponse{
		Folders: []types.FolderEnvelope{a, b},
	}, appKey)

	if len(folders) != 0 {
		t.Errorf("folder count = %d, want 0 (cycle dropped)", len(folders))
	}
}

func TestDecodeFolderMissingParent(t *testing.T) {
	appKey := mustRandomKey(t)
	orphanKey := mustRandomKey(t)
	orphan := encryptFolderEnvelope(t, "orphan", "gone", "o", orphanKey, mustRandomKey(t))

	_, folders := DecodeSecrets(&types.GetResponse{
		Folders: []types.FolderEnvelope{orphan},
	}, appKey)

	if len(folders) != 0 {
		t.Errorf("folder count = %d, want 0 (missing parent dropped)", len(folders))
	}
}
