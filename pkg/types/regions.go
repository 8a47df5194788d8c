package types

import (
	"strings"

	"github.com/cuemby/ksm/pkg/kerr"
)

// regionHosts maps region aliases, used in tokens of the form
// "ALIAS:SECRET", to server hostnames.
var regionHosts = map[string]string{
	"US":     "keepersecurity.com",
	"EU":     "keepersecurity.eu",
	"AU":     "keepersecurity.com.au",
	"US_GOV": "govcloud.keepersecurity.us",
	"JP":     "keepersecurity.jp",
	"CA":     "keepersecurity.ca",
}

// HostnameForRegion resolves a region alias (case-insensitive) to its
// server hostname. The second return is false for unknown aliases.
func HostnameForRegion(alias string) (string, bool) {
	host, ok := regionHosts[strings.ToUpper(alias)]
	return host, ok
}

// ParseToken splits a one-time token into hostname and secret. Tokens of
// the form "ALIAS:SECRET" resolve the alias against the region table; a
// bare token returns an empty hostname and the caller must supply one.
func ParseToken(token string) (hostname, secret string, err error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "", kerr.New(kerr.KindConfig, component, "token must not be empty")
	}
	if idx := strings.Index(token, ":"); idx >= 0 {
		alias, rest := token[:idx], token[idx+1:]
		host, ok := HostnameForRegion(alias)
		if !ok {
			return "", "", kerr.New(kerr.KindConfig, component, "unknown region alias %q", alias)
		}
		if rest == "" {
			return "", "", kerr.New(kerr.KindConfig, component, "token secret must not be empty")
		}
		return host, rest, nil
	}
	return "", token, nil
}

func newRecordDataError(format string, args ...interface{}) error {
	return kerr.New(kerr.KindRecordData, component, format, args...)
}
