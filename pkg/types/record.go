package types

import (
	"encoding/json"
	"strings"

	"github.com/cuemby/ksm/pkg/kerr"
)

const component = "types"

// Record is a fully decrypted secret record
type Record struct {
	Uid            string
	Title          string
	Type           string
	Revision       int64
	IsEditable     bool
	FolderUid      string
	InnerFolderUid string

	// RecordKey is the 32-byte key that encrypts the record data and
	// wraps its file keys. Zeroize when the record is discarded.
	RecordKey []byte

	// FolderKey is set for records that arrived inside a shared folder
	FolderKey []byte

	// RecordDict is the decrypted record data object (fields, custom, ...)
	RecordDict map[string]interface{}

	// RawJSON is the exact decrypted data blob the server sent
	RawJSON []byte

	// Password is populated for login records that carry a password field
	Password string

	Files []*KeeperFile
	Links []RecordLink
}

// RecordLink describes an edge to a linked record
type RecordLink struct {
	RecordUid string                 `json:"recordUid"`
	Extra     map[string]interface{} `json:"-"`
}

// Zeroize overwrites the key material held by the record and its files
func (r *Record) Zeroize() {
	for i := range r.RecordKey {
		r.RecordKey[i] = 0
	}
	for i := range r.FolderKey {
		r.FolderKey[i] = 0
	}
	for _, f := range r.Files {
		f.Zeroize()
	}
}

// fieldArray returns the named array ("fields" or "custom") from the dict
func (r *Record) fieldArray(section string) []interface{} {
	if r.RecordDict == nil {
		return nil
	}
	arr, _ := r.RecordDict[section].([]interface{})
	return arr
}

// Notes returns the notes string from the record data
func (r *Record) Notes() string {
	if r.RecordDict == nil {
		return ""
	}
	notes, _ := r.RecordDict["notes"].(string)
	return notes
}

// FieldByType returns the first field of the given type from the fields
// array, matched case-insensitively, or nil.
func (r *Record) FieldByType(fieldType string) map[string]interface{} {
	return findField(r.fieldArray("fields"), "", fieldType)
}

// FieldByLabel returns the first field with the given label, or nil
func (r *Record) FieldByLabel(label string) map[string]interface{} {
	return findField(r.fieldArray("fields"), label, "")
}

// CustomFieldByType returns the first custom field of the given type
func (r *Record) CustomFieldByType(fieldType string) map[string]interface{} {
	return findField(r.fieldArray("custom"), "", fieldType)
}

// CustomFieldByLabel returns the first custom field with the given label
func (r *Record) CustomFieldByLabel(label string) map[string]interface{} {
	return findField(r.fieldArray("custom"), label, "")
}

func findField(fields []interface{}, label, fieldType string) map[string]interface{} {
	for _, f := range fields {
		field, ok := f.(map[string]interface{})
		if !ok {
			continue
		}
		if label != "" {
			if l, _ := field["label"].(string); l == label {
				return field
			}
			continue
		}
		if t, _ := field["type"].(string); strings.EqualFold(t, fieldType) {
			return field
		}
	}
	return nil
}

// FieldValue returns the value array of a field, or nil
func FieldValue(field map[string]interface{}) []interface{} {
	if field == nil {
		return nil
	}
	value, _ := field["value"].([]interface{})
	return value
}

// FieldValueByType returns the first value entry of the first field with
// the given type, or nil.
func (r *Record) FieldValueByType(fieldType string) interface{} {
	value := FieldValue(r.FieldByType(fieldType))
	if len(value) == 0 {
		return nil
	}
	return value[0]
}

// SetFieldValue replaces the value array of the first field with the
// given type. The field must already exist on the record.
func (r *Record) SetFieldValue(fieldType string, value []interface{}) error {
	field := r.FieldByType(fieldType)
	if field == nil {
		return kerr.New(kerr.KindRecordData, component, "record %s has no field of type %q", r.Uid, fieldType)
	}
	field["value"] = value
	return nil
}

// SetPassword replaces the password field value and the convenience copy
func (r *Record) SetPassword(password string) error {
	if err := r.SetFieldValue("password", []interface{}{password}); err != nil {
		return err
	}
	r.Password = password
	return nil
}

// MarshalData re-serializes the record dict for an update call
func (r *Record) MarshalData() ([]byte, error) {
	data, err := json.Marshal(r.RecordDict)
	if err != nil {
		return nil, kerr.Wrap(kerr.KindSerialization, component, err, "failed to marshal record data")
	}
	return data, nil
}

// FileByIdentifier returns the file whose name, title or UID equals id.
// The second return reports how many files matched.
func (r *Record) FileByIdentifier(id string) (*KeeperFile, int) {
	var found *KeeperFile
	count := 0
	for _, f := range r.Files {
		if f.Name == id || f.Title == id || f.Uid == id {
			if found == nil {
				found = f
			}
			count++
		}
	}
	return found, count
}

// ConsolidateFileRefs merges every fileRef field on the record into one,
// positioned where the first fileRef field was, with value UIDs in their
// original order and extra UIDs appended. Older clients could leave more
// than one fileRef behind.
func (r *Record) ConsolidateFileRefs(extraUids ...string) {
	fields := r.fieldArray("fields")
	if fields == nil {
		if r.RecordDict == nil {
			r.RecordDict = map[string]interface{}{}
		}
		fields = []interface{}{}
	}

	merged := []interface{}{}
	firstIdx := -1
	out := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		field, ok := f.(map[string]interface{})
		if ok {
			if t, _ := field["type"].(string); t == "fileRef" {
				merged = append(merged, FieldValue(field)...)
				if firstIdx == -1 {
					firstIdx = len(out)
					out = append(out, field)
				}
				continue
			}
		}
		out = append(out, f)
	}

	for _, uid := range extraUids {
		merged = append(merged, uid)
	}

	if firstIdx == -1 {
		out = append(out, map[string]interface{}{"type": "fileRef", "value": merged})
	} else {
		out[firstIdx].(map[string]interface{})["value"] = merged
	}
	r.RecordDict["fields"] = out
}
