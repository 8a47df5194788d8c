package notation

import (
	"strconv"
	"strings"

	"github.com/cuemby/ksm/pkg/kerr"
)

const component = "notation"

// Prefix is the URI scheme notation queries may carry
const Prefix = "keeper://"

// Selector names accepted by the grammar
const (
	SelectorType        = "type"
	SelectorTitle       = "title"
	SelectorNotes       = "notes"
	SelectorField       = "field"
	SelectorCustomField = "custom_field"
	SelectorFile        = "file"
)

// Query is the parsed form of a notation URI. Record holds the record
// UID or title with escapes removed; Parameter names the field or file
// for the selectors that take one. Index1 is -1 when no numeric index
// was given; an empty bracket pair sets WholeArray instead.
type Query struct {
	Raw        string
	HasPrefix  bool
	Record     string
	Selector   string
	Parameter  string
	Index1     int
	Index2     string
	WholeArray bool
}

// splitEscaped splits s on sep, honoring backslash escapes of the
// characters the grammar allows to be escaped.
func splitEscaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '/', '[', ']', '\\':
				cur.WriteByte(s[i+1])
				i++
				continue
			}
		}
		if c == sep {
			parts = append(parts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteByte(c)
	}
	parts = append(parts, cur.String())
	return parts
}

// splitBrackets separates a parameter from its trailing bracket groups.
// The parameter keeps escaped brackets; bracket contents take no
// escaping.
func splitBrackets(s string) (name string, indexes []string, err error) {
	var cur strings.Builder
	i := 0
	for ; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '/', '[', ']', '\\':
				cur.WriteByte(s[i+1])
				i++
				continue
			}
		}
		if c == '[' {
			break
		}
		if c == ']' {
			return "", nil, kerr.New(kerr.KindNotation, component, "unmatched ']' in %q", s)
		}
		cur.WriteByte(c)
	}
	name = cur.String()

	for i < len(s) {
		if s[i] != '[' {
			return "", nil, kerr.New(kerr.KindNotation, component, "unexpected text after index in %q", s)
		}
		end := strings.IndexByte(s[i:], ']')
		if end < 0 {
			return "", nil, kerr.New(kerr.KindNotation, component, "unterminated index in %q", s)
		}
		indexes = append(indexes, s[i+1:i+end])
		i += end + 1
	}
	if len(indexes) > 2 {
		return "", nil, kerr.New(kerr.KindNotation, component, "too many indexes in %q", s)
	}
	return name, indexes, nil
}

// Parse splits a notation URI into its sections. The selector name is
// case-insensitive; everything else is preserved as written.
func Parse(raw string) (*Query, error) {
	q := &Query{Raw: raw, Index1: -1}

	s := raw
	if strings.HasPrefix(s, Prefix) {
		q.HasPrefix = true
		s = s[len(Prefix):]
	}
	if s == "" {
		return nil, kerr.New(kerr.KindNotation, component, "empty notation")
	}

	parts := splitEscaped(s, '/')
	if len(parts) < 2 || len(parts) > 3 {
		return nil, kerr.New(kerr.KindNotation, component, "notation %q must have 2 or 3 sections", raw)
	}
	if parts[0] == "" {
		return nil, kerr.New(kerr.KindNotation, component, "notation %q has an empty record token", raw)
	}
	q.Record = parts[0]

	q.Selector = strings.ToLower(parts[1])
	switch q.Selector {
	case SelectorType, SelectorTitle, SelectorNotes:
		if len(parts) == 3 {
			return nil, kerr.New(kerr.KindNotation, component, "selector %q takes no parameter", q.Selector)
		}
		return q, nil
	case SelectorField, SelectorCustomField, SelectorFile:
		if len(parts) < 3 || parts[2] == "" {
			return nil, kerr.New(kerr.KindNotation, component, "selector %q requires a parameter", q.Selector)
		}
	default:
		return nil, kerr.New(kerr.KindNotation, component, "unknown selector %q", parts[1])
	}

	name, indexes, err := splitBrackets(parts[2])
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, kerr.New(kerr.KindNotation, component, "selector %q requires a parameter", q.Selector)
	}
	q.Parameter = name

	switch len(indexes) {
	case 0:
	case 1:
		if indexes[0] == "" {
			q.WholeArray = true
			break
		}
		n, err := strconv.Atoi(indexes[0])
		if err != nil {
			// legacy single-bracket form: the bracket is the dict key
			// with an implied first index of 0
			q.Index1 = 0
			q.Index2 = indexes[0]
			break
		}
		q.Index1 = n
	case 2:
		if indexes[0] == "" {
			q.Index1 = 0
		} else {
			n, err := strconv.Atoi(indexes[0])
			if err != nil {
				return nil, kerr.New(kerr.KindNotation, component, "index %q is not numeric", indexes[0])
			}
			q.Index1 = n
		}
		q.Index2 = indexes[1]
	}
	if q.Index1 < -1 {
		return nil, kerr.New(kerr.KindNotation, component, "index %d is negative", q.Index1)
	}
	return q, nil
}
