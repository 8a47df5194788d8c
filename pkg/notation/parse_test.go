package notation

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Query
		wantErr bool
	}{
		{
			name: "full uri",
			raw:  "keeper://hIhYeim5pm0pnVGTT123xA/field/login",
			want: Query{HasPrefix: true, Record: "hIhYeim5pm0pnVGTT123xA", Selector: "field", Parameter: "login", Index1: -1},
		},
		{
			name: "no prefix",
			raw:  "Prod DB/field/password",
			want: Query{Record: "Prod DB", Selector: "field", Parameter: "password", Index1: -1},
		},
		{
			name: "scalar selector",
			raw:  "keeper://Prod DB/title",
			want: Query{HasPrefix: true, Record: "Prod DB", Selector: "title", Index1: -1},
		},
		{
			name: "selector case insensitive",
			raw:  "Prod DB/TITLE",
			want: Query{Record: "Prod DB", Selector: "title", Index1: -1},
		},
		{
			name: "numeric index",
			raw:  "Prod DB/field/url[1]",
			want: Query{Record: "Prod DB", Selector: "field", Parameter: "url", Index1: 1},
		},
		{
			name: "both indexes",
			raw:  "Prod DB/custom_field/phone[0][number]",
			want: Query{Record: "Prod DB", Selector: "custom_field", Parameter: "phone", Index1: 0, Index2: "number"},
		},
		{
			name: "empty first index with key",
			raw:  "Prod DB/field/name[][first]",
			want: Query{Record: "Prod DB", Selector: "field", Parameter: "name", Index1: 0, Index2: "first"},
		},
		{
			name: "legacy single bracket key",
			raw:  "Prod DB/field/name[first]",
			want: Query{Record: "Prod DB", Selector: "field", Parameter: "name", Index1: 0, Index2: "first"},
		},
		{
			name: "whole array",
			raw:  "Prod DB/field/url[]",
			want: Query{Record: "Prod DB", Selector: "field", Parameter: "url", Index1: -1, WholeArray: true},
		},
		{
			name: "escaped slash in title",
			raw:  `A\/B Service/field/login`,
			want: Query{Record: "A/B Service", Selector: "field", Parameter: "login", Index1: -1},
		},
		{
			name: "escaped bracket in parameter",
			raw:  `Prod DB/field/odd \[label\]`,
			want: Query{Record: "Prod DB", Selector: "field", Parameter: "odd [label]", Index1: -1},
		},
		{
			name: "file selector",
			raw:  "keeper://Prod DB/file/report.pdf",
			want: Query{HasPrefix: true, Record: "Prod DB", Selector: "file", Parameter: "report.pdf", Index1: -1},
		},
		{name: "empty", raw: "", wantErr: true},
		{name: "prefix only", raw: "keeper://", wantErr: true},
		{name: "record only", raw: "Prod DB", wantErr: true},
		{name: "empty record", raw: "/field/login", wantErr: true},
		{name: "unknown selector", raw: "Prod DB/password/x", wantErr: true},
		{name: "scalar selector with parameter", raw: "Prod DB/title/x", wantErr: true},
		{name: "field without parameter", raw: "Prod DB/field", wantErr: true},
		{name: "too many sections", raw: "a/field/b/c", wantErr: true},
		{name: "unterminated index", raw: "Prod DB/field/url[1", wantErr: true},
		{name: "text after index", raw: "Prod DB/field/url[1]x", wantErr: true},
		{name: "three indexes", raw: "Prod DB/field/url[0][a][b]", wantErr: true},
		{name: "non numeric first of two", raw: "Prod DB/field/url[a][b]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			tt.want.Raw = tt.raw
			if !reflect.DeepEqual(*got, tt.want) {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, *got, tt.want)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	raw := `keeper://A\/B Service/custom_field/phone[0][number]`
	first, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-parse diverged: %+v vs %+v", first, second)
	}
}
