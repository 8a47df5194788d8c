package types

import (
	"encoding/json"
	"testing"
)

func loginRecord() *Record {
	dict := map[string]interface{}{
		"title": "prod db",
		"type":  "login",
		"fields": []interface{}{
			map[string]interface{}{
				"type":  "login",
				"value": []interface{}{"admin"},
			},
			map[string]interface{}{
				"type":  "password",
				"value": []interface{}{"hunter2"},
			},
			map[string]interface{}{
				"type":  "url",
				"label": "Console",
				"value": []interface{}{"https://db.example.com"},
			},
		},
		"custom": []interface{}{
			map[string]interface{}{
				"type":  "text",
				"label": "Environment",
				"value": []interface{}{"production"},
			},
		},
		"notes": "rotate quarterly",
	}
	return &Record{Uid: "uid-1", Title: "prod db", Type: "login", RecordDict: dict}
}

func TestRecordFieldAccessors(t *testing.T) {
	r := loginRecord()

	tests := []struct {
		name  string
		field map[string]interface{}
		want  string
	}{
		{name: "by type", field: r.FieldByType("password"), want: "hunter2"},
		{name: "by type case-insensitive", field: r.FieldByType("PASSWORD"), want: "hunter2"},
		{name: "by label", field: r.FieldByLabel("Console"), want: "https://db.example.com"},
		{name: "custom by label", field: r.CustomFieldByLabel("Environment"), want: "production"},
		{name: "custom by type", field: r.CustomFieldByType("text"), want: "production"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := FieldValue(tt.field)
			if len(value) != 1 || value[0] != tt.want {
				t.Errorf("field value = %v, want [%s]", value, tt.want)
			}
		})
	}

	if r.FieldByType("bankAccount") != nil {
		t.Error("FieldByType() found a field that does not exist")
	}
	if r.Notes() != "rotate quarterly" {
		t.Errorf("Notes() = %q", r.Notes())
	}
	if got := r.FieldValueByType("login"); got != "admin" {
		t.Errorf("FieldValueByType(login) = %v", got)
	}
}

func TestSetPassword(t *testing.T) {
	r := loginRecord()
	if err := r.SetPassword("correct horse"); err != nil {
		t.Fatalf("SetPassword() error = %v", err)
	}
	if got := r.FieldValueByType("password"); got != "correct horse" {
		t.Errorf("password field = %v after SetPassword", got)
	}
	if r.Password != "correct horse" {
		t.Errorf("Password = %q after SetPassword", r.Password)
	}

	bare := &Record{RecordDict: map[string]interface{}{"fields": []interface{}{}}}
	if err := bare.SetPassword("x"); err == nil {
		t.Error("SetPassword() succeeded on a record with no password field")
	}
}

func TestConsolidateFileRefs(t *testing.T) {
	// two legacy fileRef fields, the merge keeps the first one's position
	r := &Record{RecordDict: map[string]interface{}{
		"title": "r",
		"fields": []interface{}{
			map[string]interface{}{"type": "login", "value": []interface{}{"u"}},
			map[string]interface{}{"type": "fileRef", "value": []interface{}{"a"}},
			map[string]interface{}{"type": "password", "value": []interface{}{"p"}},
			map[string]interface{}{"type": "fileRef", "value": []interface{}{"b"}},
		},
	}}

	r.ConsolidateFileRefs("c")

	fields := r.RecordDict["fields"].([]interface{})
	if len(fields) != 3 {
		t.Fatalf("field count = %d after consolidation, want 3", len(fields))
	}

	merged := fields[1].(map[string]interface{})
	if ft, _ := merged["type"].(string); ft != "fileRef" {
		t.Fatalf("field at position 1 is %q, want fileRef", ft)
	}
	value := FieldValue(merged)
	if len(value) != 3 || value[0] != "a" || value[1] != "b" || value[2] != "c" {
		t.Errorf("merged fileRef value = %v, want [a b c]", value)
	}
}

func TestConsolidateFileRefsCreatesField(t *testing.T) {
	r := &Record{RecordDict: map[string]interface{}{
		"fields": []interface{}{
			map[string]interface{}{"type": "login", "value": []interface{}{"u"}},
		},
	}}

	r.ConsolidateFileRefs("new-file-uid")

	fields := r.RecordDict["fields"].([]interface{})
	last := fields[len(fields)-1].(map[string]interface{})
	if ft, _ := last["type"].(string); ft != "fileRef" {
		t.Fatalf("appended field is %q, want fileRef", ft)
	}
	value := FieldValue(last)
	if len(value) != 1 || value[0] != "new-file-uid" {
		t.Errorf("fileRef value = %v", value)
	}
}

func TestMarshalDataRoundtrip(t *testing.T) {
	r := loginRecord()
	data, err := r.MarshalData()
	if err != nil {
		t.Fatalf("MarshalData() error = %v", err)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("marshaled data is not valid JSON: %v", err)
	}
	if parsed["title"] != "prod db" {
		t.Errorf("marshaled title = %v", parsed["title"])
	}
}

func TestFileByIdentifier(t *testing.T) {
	r := &Record{Files: []*KeeperFile{
		{Uid: "f1", Name: "report.pdf", Title: "Report"},
		{Uid: "f2", Name: "dup", Title: "Dup"},
		{Uid: "f3", Name: "dup", Title: "Other"},
	}}

	tests := []struct {
		name      string
		id        string
		wantUid   string
		wantCount int
	}{
		{name: "by name", id: "report.pdf", wantUid: "f1", wantCount: 1},
		{name: "by title", id: "Report", wantUid: "f1", wantCount: 1},
		{name: "by uid", id: "f3", wantUid: "f3", wantCount: 1},
		{name: "ambiguous", id: "dup", wantUid: "f2", wantCount: 2},
		{name: "missing", id: "nope", wantUid: "", wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, count := r.FileByIdentifier(tt.id)
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			gotUid := ""
			if f != nil {
				gotUid = f.Uid
			}
			if gotUid != tt.wantUid {
				t.Errorf("uid = %q, want %q", gotUid, tt.wantUid)
			}
		})
	}
}
