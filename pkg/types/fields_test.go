package types

import (
	"encoding/json"
	"testing"
)

func TestValidateTemplate(t *testing.T) {
	tests := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{
			name:     "valid login template",
			template: `{"title":"t","type":"login","fields":[{"type":"login","value":["u"]},{"type":"password","value":["p"]}]}`,
		},
		{
			name:     "valid with custom",
			template: `{"title":"t","type":"login","fields":[],"custom":[{"type":"text","label":"env","value":["prod"]}]}`,
		},
		{
			name:     "missing title",
			template: `{"type":"login","fields":[{"type":"login","value":["u"]}]}`,
			wantErr:  true,
		},
		{
			name:     "unknown field type",
			template: `{"title":"t","fields":[{"type":"flurble","value":["x"]}]}`,
			wantErr:  true,
		},
		{
			name:     "value not an array",
			template: `{"title":"t","fields":[{"type":"login","value":"u"}]}`,
			wantErr:  true,
		},
		{
			name:     "field not an object",
			template: `{"title":"t","fields":["oops"]}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var dict map[string]interface{}
			if err := json.Unmarshal([]byte(tt.template), &dict); err != nil {
				t.Fatal(err)
			}
			err := ValidateTemplate(dict)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTemplate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidFieldType(t *testing.T) {
	for _, name := range []string{"login", "password", "pamRemoteBrowserSettings", "trafficEncryptionSeed", "birthDate"} {
		if !IsValidFieldType(name) {
			t.Errorf("IsValidFieldType(%q) = false", name)
		}
	}
	for _, name := range []string{"", "Login", "passwd", "ssn"} {
		if IsValidFieldType(name) {
			t.Errorf("IsValidFieldType(%q) = true", name)
		}
	}
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		name       string
		token      string
		wantHost   string
		wantSecret string
		wantErr    bool
	}{
		{name: "us region", token: "US:abcDEF123", wantHost: "keepersecurity.com", wantSecret: "abcDEF123"},
		{name: "eu region", token: "EU:secret", wantHost: "keepersecurity.eu", wantSecret: "secret"},
		{name: "gov region lower case", token: "us_gov:secret", wantHost: "govcloud.keepersecurity.us", wantSecret: "secret"},
		{name: "bare token", token: "justTheSecret", wantHost: "", wantSecret: "justTheSecret"},
		{name: "unknown region", token: "MARS:secret", wantErr: true},
		{name: "empty secret", token: "US:", wantErr: true},
		{name: "empty token", token: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secret, err := ParseToken(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if host != tt.wantHost || secret != tt.wantSecret {
				t.Errorf("ParseToken() = (%q, %q), want (%q, %q)", host, secret, tt.wantHost, tt.wantSecret)
			}
		})
	}
}

func TestServerErrorKeyID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string key id", body: `{"result_code":"key","key_id":"11"}`, want: "11"},
		{name: "numeric key id", body: `{"result_code":"key","key_id":11}`, want: "11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var se ServerError
			if err := json.Unmarshal([]byte(tt.body), &se); err != nil {
				t.Fatalf("unmarshal error = %v", err)
			}
			if string(se.KeyID) != tt.want {
				t.Errorf("KeyID = %q, want %q", se.KeyID, tt.want)
			}
			if se.Code() != "key" {
				t.Errorf("Code() = %q, want key", se.Code())
			}
		})
	}
}
