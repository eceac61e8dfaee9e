package config

import (
	"strings"

	ferrors "git.home.luguber.info/inful/tsbuild/internal/foundation/errors"
)

const ignoreGlobsMessage = "ignoreGlobs must be a non-empty string or array"

// ParseIgnoreGlobs normalizes the ignoreGlobs option. A string is split on
// commas with each entry trimmed and blank entries dropped. A sequence keeps
// its order with each entry trimmed. Re-parsing the result yields the same
// slice.
func ParseIgnoreGlobs(v any) ([]string, error) {
	switch val := v.(type) {
	case string:
		var out []string
		for part := range strings.SplitSeq(val, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		if len(out) == 0 {
			return nil, ignoreGlobsError(v)
		}
		return out, nil
	case []string:
		return trimEntries(val, v)
	case []any:
		entries := make([]string, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, ignoreGlobsError(v)
			}
			entries = append(entries, s)
		}
		return trimEntries(entries, v)
	default:
		return nil, ignoreGlobsError(v)
	}
}

func trimEntries(entries []string, raw any) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		p := strings.TrimSpace(e)
		if p == "" {
			return nil, ignoreGlobsError(raw)
		}
		out = append(out, p)
	}
	return out, nil
}

func ignoreGlobsError(v any) error {
	return ferrors.ConfigError(ignoreGlobsMessage).
		WithContext("field", "ignoreGlobs").
		WithContext("value", v).
		Build()
}
