package hashcodec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentdesk/contentdesk/internal/model"
)

func TestEncodeScalars(t *testing.T) {
	name := "widget"
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589000000, time.UTC)

	out, err := Encode(map[string]any{
		"name":    "acme",
		"ptr":     &name,
		"active":  true,
		"count":   42,
		"big":     int64(1 << 40),
		"ratio":   0.25,
		"created": ts,
		"absent":  nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "acme", out["name"])
	assert.Equal(t, "widget", out["ptr"])
	assert.Equal(t, "true", out["active"])
	assert.Equal(t, "42", out["count"])
	assert.Equal(t, "1099511627776", out["big"])
	assert.Equal(t, "0.25", out["ratio"])
	assert.Equal(t, "2026-03-14T09:26:53.589Z", out["created"])
	_, ok := out["absent"]
	assert.False(t, ok, "nil values must be dropped")
}

func TestEncodeStructuredValues(t *testing.T) {
	out, err := Encode(map[string]any{
		"aiContext":     map[string]any{"tone": "warm"},
		"contentPieces": []string{"a", "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, `{"tone":"warm"}`, out["aiContext"+JSONSuffix])
	assert.Equal(t, `["a","b"]`, out["contentPieces"+JSONSuffix])
	_, ok := out["aiContext"]
	assert.False(t, ok, "structured fields live only under the suffixed name")
}

func TestEncodeZeroTimeDropped(t *testing.T) {
	out, err := Encode(map[string]any{"timestamp": time.Time{}})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEncodeUnsupportedTypeFailsFast(t *testing.T) {
	_, err := Encode(map[string]any{"bad": struct{ X int }{1}})
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestDecodeRoundTrip(t *testing.T) {
	in := map[string]any{
		"name":      "acme",
		"aiContext": map[string]any{"tone": "warm", "depth": float64(2)},
	}
	encoded, err := Encode(in)
	require.NoError(t, err)

	decoded := Decode(encoded)
	assert.Equal(t, "acme", decoded["name"])
	assert.Equal(t, map[string]any{"tone": "warm", "depth": float64(2)}, decoded["aiContext"])
}

func TestDecodeMalformedJSONKeepsRawString(t *testing.T) {
	decoded := Decode(map[string]string{"aiContext" + JSONSuffix: "{not json"})
	assert.Equal(t, "{not json", decoded["aiContext"+JSONSuffix])
	_, ok := decoded["aiContext"]
	assert.False(t, ok)
}

func TestMapField(t *testing.T) {
	fields := map[string]string{"aiContext" + JSONSuffix: `{"tone":"warm"}`}
	assert.Equal(t, map[string]any{"tone": "warm"}, MapField(fields, "aiContext"))
	assert.Nil(t, MapField(fields, "missing"))
	assert.Nil(t, MapField(map[string]string{"aiContext" + JSONSuffix: "broken"}, "aiContext"))
}

func TestStringsField(t *testing.T) {
	fields := map[string]string{"contentPieces" + JSONSuffix: `["x","y"]`}
	got, ok := StringsField(fields, "contentPieces")
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y"}, got)

	_, ok = StringsField(fields, "missing")
	assert.False(t, ok)
	_, ok = StringsField(map[string]string{"contentPieces" + JSONSuffix: "broken"}, "contentPieces")
	assert.False(t, ok)
}

func TestTimeField(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fields := map[string]string{"timestamp": ts.Format(time.RFC3339Nano)}
	assert.True(t, TimeField(fields, "timestamp").Equal(ts))
	assert.True(t, TimeField(fields, "missing").IsZero())
	assert.True(t, TimeField(map[string]string{"timestamp": "yesterday"}, "timestamp").IsZero())
}
