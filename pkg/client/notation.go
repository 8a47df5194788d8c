package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cuemby/ksm/pkg/log"
	"github.com/cuemby/ksm/pkg/notation"
)

// GetNotation resolves a keeper:// URI against the live record set
func (s *SecretsManager) GetNotation(ctx context.Context, uri string) (string, error) {
	return notation.Execute(ctx, s, uri)
}

// GetNotationResults resolves a URI and returns the value as a string
// slice: a JSON array resolves element-wise, anything else is a single
// element.
func (s *SecretsManager) GetNotationResults(ctx context.Context, uri string) ([]string, error) {
	value, err := s.GetNotation(ctx, uri)
	if err != nil {
		return nil, err
	}
	var arr []interface{}
	if json.Unmarshal([]byte(value), &arr) == nil {
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			if str, ok := v.(string); ok {
				out = append(out, str)
				continue
			}
			raw, err := json.Marshal(v)
			if err != nil {
				out = append(out, fmt.Sprint(v))
				continue
			}
			out = append(out, string(raw))
		}
		return out, nil
	}
	return []string{value}, nil
}

// TryGetNotationResults is GetNotationResults with errors swallowed;
// the second return reports success. Meant for template engines where a
// missing value is not fatal.
func (s *SecretsManager) TryGetNotationResults(ctx context.Context, uri string) ([]string, bool) {
	results, err := s.GetNotationResults(ctx, uri)
	if err != nil {
		logger := log.WithComponent(component)
		logger.Debug().Err(err).Str("uri", uri).Msg("notation did not resolve")
		return nil, false
	}
	return results, true
}
