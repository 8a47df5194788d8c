package notation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cuemby/ksm/pkg/crypto"
	"github.com/cuemby/ksm/pkg/kerr"
	"github.com/cuemby/ksm/pkg/types"
)

// uidPattern matches a url-safe base64 record UID
var uidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{22}$`)

// refTypes are the field types whose values are UIDs of other records
var refTypes = map[string]bool{
	"addressRef": true,
	"cardRef":    true,
}

// maxInflateDepth bounds reference chasing: a cardRef may carry an
// addressRef, and that is the end of the chain.
const maxInflateDepth = 2

// Source supplies the records and file bytes a query resolves against.
// The client facade implements it over live server calls.
type Source interface {
	// GetSecrets returns records, filtered to the given UIDs when the
	// list is non-empty.
	GetSecrets(ctx context.Context, uids []string) ([]*types.Record, error)
	// DownloadFile returns the decrypted bytes of a file attachment.
	DownloadFile(ctx context.Context, file *types.KeeperFile) ([]byte, error)
}

// Execute parses and resolves a notation URI against src.
func Execute(ctx context.Context, src Source, raw string) (string, error) {
	q, err := Parse(raw)
	if err != nil {
		return "", err
	}
	return Resolve(ctx, src, q)
}

// Resolve evaluates a parsed query.
func Resolve(ctx context.Context, src Source, q *Query) (string, error) {
	record, err := findRecord(ctx, src, q.Record)
	if err != nil {
		return "", err
	}

	switch q.Selector {
	case SelectorType:
		return record.Type, nil
	case SelectorTitle:
		return record.Title, nil
	case SelectorNotes:
		return record.Notes(), nil
	case SelectorFile:
		return resolveFile(ctx, src, record, q.Parameter)
	case SelectorField, SelectorCustomField:
		return resolveField(ctx, src, record, q)
	}
	return "", kerr.New(kerr.KindNotation, component, "unknown selector %q", q.Selector)
}

// findRecord fetches by UID when the token looks like one, otherwise by
// exact title; either way exactly one match is required.
func findRecord(ctx context.Context, src Source, token string) (*types.Record, error) {
	if uidPattern.MatchString(token) {
		records, err := src.GetSecrets(ctx, []string{token})
		if err != nil {
			return nil, err
		}
		if len(records) == 1 {
			return records[0], nil
		}
		if len(records) > 1 {
			return nil, kerr.New(kerr.KindNotation, component, "multiple records match uid %q", token)
		}
		// fall through: a 22-character title is still a legal title
	}

	records, err := src.GetSecrets(ctx, nil)
	if err != nil {
		return nil, err
	}
	var matches []*types.Record
	for _, r := range records {
		if r.Title == token {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return nil, kerr.New(kerr.KindNotation, component, "no record matches %q", token)
	case 1:
		return matches[0], nil
	default:
		return nil, kerr.New(kerr.KindNotation, component, "%d records share the title %q", len(matches), token)
	}
}

func resolveFile(ctx context.Context, src Source, record *types.Record, name string) (string, error) {
	file, count := record.FileByIdentifier(name)
	if count == 0 {
		return "", kerr.New(kerr.KindNotation, component, "record %s has no file %q", record.Uid, name)
	}
	if count > 1 {
		return "", kerr.New(kerr.KindNotation, component, "record %s has %d files named %q", record.Uid, count, name)
	}
	data, err := src.DownloadFile(ctx, file)
	if err != nil {
		return "", err
	}
	return crypto.BytesToURLSafeStr(data), nil
}

func resolveField(ctx context.Context, src Source, record *types.Record, q *Query) (string, error) {
	var field map[string]interface{}
	if q.Selector == SelectorField {
		field = record.FieldByLabel(q.Parameter)
		if field == nil {
			field = record.FieldByType(q.Parameter)
		}
	} else {
		field = record.CustomFieldByLabel(q.Parameter)
		if field == nil {
			field = record.CustomFieldByType(q.Parameter)
		}
	}
	if field == nil {
		return "", kerr.New(kerr.KindNotation, component, "record %s has no %s %q", record.Uid, q.Selector, q.Parameter)
	}

	fieldType, _ := field["type"].(string)
	value := types.FieldValue(field)

	if refTypes[fieldType] {
		idx := q.Index1
		if idx < 0 {
			idx = 0
		}
		if idx >= len(value) {
			return "", kerr.New(kerr.KindNotation, component, "index %d is out of range for %q", idx, q.Parameter)
		}
		uid, ok := value[idx].(string)
		if !ok {
			return "", kerr.New(kerr.KindNotation, component, "%s value is not a record uid", fieldType)
		}
		inflated, err := inflateRef(ctx, src, fieldType, uid, maxInflateDepth)
		if err != nil {
			return "", err
		}
		return stringify(inflated)
	}

	if q.WholeArray {
		return stringify(value)
	}
	idx := q.Index1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(value) {
		return "", kerr.New(kerr.KindNotation, component, "index %d is out of range for %q", idx, q.Parameter)
	}
	entry := value[idx]
	if q.Index2 != "" {
		dict, ok := entry.(map[string]interface{})
		if !ok {
			return "", kerr.New(kerr.KindNotation, component, "value of %q is not an object", q.Parameter)
		}
		sub, ok := dict[q.Index2]
		if !ok {
			return "", kerr.New(kerr.KindNotation, component, "value of %q has no key %q", q.Parameter, q.Index2)
		}
		return stringify(sub)
	}
	return stringify(entry)
}

// inflateRef chases a reference field to its target record and projects
// it into a flat dict: addressRef yields the address object, cardRef
// yields payment card, text and pin code entries plus its own address,
// one level deeper.
func inflateRef(ctx context.Context, src Source, refType, uid string, depth int) (map[string]interface{}, error) {
	if depth <= 0 {
		return nil, kerr.New(kerr.KindNotation, component, "reference chain from %s is too deep", uid)
	}
	target, err := findRecord(ctx, src, uid)
	if err != nil {
		return nil, err
	}

	if refType == "addressRef" {
		field := target.FieldByType("address")
		if field == nil {
			return nil, kerr.New(kerr.KindNotation, component, "record %s has no address field", uid)
		}
		value := types.FieldValue(field)
		if len(value) == 0 {
			return map[string]interface{}{}, nil
		}
		dict, ok := value[0].(map[string]interface{})
		if !ok {
			return nil, kerr.New(kerr.KindNotation, component, "address value of %s is not an object", uid)
		}
		return dict, nil
	}

	// cardRef
	out := map[string]interface{}{}
	for _, ft := range []string{"paymentCard", "text", "pinCode", "addressRef"} {
		field := target.FieldByType(ft)
		if field == nil {
			continue
		}
		value := types.FieldValue(field)
		if len(value) == 0 {
			continue
		}
		if ft == "addressRef" {
			subUID, ok := value[0].(string)
			if !ok {
				continue
			}
			address, err := inflateRef(ctx, src, "addressRef", subUID, depth-1)
			if err != nil {
				return nil, err
			}
			for k, v := range address {
				out[k] = v
			}
			continue
		}
		if dict, ok := value[0].(map[string]interface{}); ok {
			for k, v := range dict {
				out[k] = v
			}
			continue
		}
		key, _ := field["label"].(string)
		if key == "" {
			key = ft
		}
		out[key] = value[0]
	}
	return out, nil
}

// stringify renders a resolved value: strings pass through, other
// scalars print plainly, objects and arrays render as JSON.
func stringify(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case float64, bool, json.Number:
		return fmt.Sprint(t), nil
	case nil:
		return "", nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return "", kerr.Wrap(kerr.KindNotation, component, err, "failed to render value")
		}
		return string(raw), nil
	}
}
