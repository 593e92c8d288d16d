// Package hashcodec converts typed attribute maps to and from the
// primitive-only field maps the store's hash structure accepts.
//
// Encoding contract: nil values are dropped (absence means "unset"),
// scalars become their canonical string form, and structured values (maps,
// slices) are serialized as compact JSON under a field name suffixed
// "_json". The write side always encodes to a string, so the read side has
// exactly one decode case.
package hashcodec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/contentdesk/contentdesk/internal/model"
)

// JSONSuffix marks hash fields holding a JSON-serialized structured value.
const JSONSuffix = "_json"

// Encode flattens attrs into store-safe string fields. Nil values are
// dropped. Unsupported value kinds fail fast with ErrInvalidArgument before
// any store mutation can happen.
func Encode(attrs map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(attrs))
	for name, v := range attrs {
		if v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			out[name] = val
		case *string:
			if val != nil {
				out[name] = *val
			}
		case bool:
			out[name] = strconv.FormatBool(val)
		case int:
			out[name] = strconv.Itoa(val)
		case int64:
			out[name] = strconv.FormatInt(val, 10)
		case float64:
			out[name] = strconv.FormatFloat(val, 'f', -1, 64)
		case time.Time:
			if val.IsZero() {
				continue
			}
			out[name] = val.UTC().Format(time.RFC3339Nano)
		case map[string]any, []any, []string:
			b, err := json.Marshal(val)
			if err != nil {
				return nil, fmt.Errorf("%w: field %q: %v", model.ErrInvalidArgument, name, err)
			}
			out[name+JSONSuffix] = string(b)
		default:
			return nil, fmt.Errorf("%w: field %q has unsupported type %T", model.ErrInvalidArgument, name, v)
		}
	}
	return out, nil
}

// Decode is the inverse of Encode: "_json" fields are unmarshalled back into
// structured values under their unsuffixed name, everything else stays a
// string. A malformed "_json" payload keeps the raw string under the
// suffixed name so callers can apply their DataIntegrity policy.
func Decode(fields map[string]string) map[string]any {
	out := make(map[string]any, len(fields))
	for name, raw := range fields {
		if strings.HasSuffix(name, JSONSuffix) {
			var v any
			if err := json.Unmarshal([]byte(raw), &v); err != nil {
				out[name] = raw
				continue
			}
			out[strings.TrimSuffix(name, JSONSuffix)] = v
			continue
		}
		out[name] = raw
	}
	return out
}

// MapField returns the decoded map stored under name+"_json", or nil when
// the field is absent or not a JSON object.
func MapField(fields map[string]string, name string) map[string]any {
	raw, ok := fields[name+JSONSuffix]
	if !ok {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

// StringsField returns the decoded string slice stored under name+"_json".
// The second return is false when the field is absent or malformed.
func StringsField(fields map[string]string, name string) ([]string, bool) {
	raw, ok := fields[name+JSONSuffix]
	if !ok {
		return nil, false
	}
	var s []string
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, false
	}
	return s, true
}

// TimeField parses the RFC3339 timestamp stored under name. The zero time is
// returned when the field is absent or malformed.
func TimeField(fields map[string]string, name string) time.Time {
	raw, ok := fields[name]
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
