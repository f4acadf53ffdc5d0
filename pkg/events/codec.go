package events

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Raw is a decoded event object before any type specific interpretation.
type Raw map[string]any

func (r Raw) Type() string {
	s, _ := r["type"].(string)
	return s
}

func (r Raw) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

// Int64 reads an integer field sent either as a JSON number or a numeric string.
func (r Raw) Int64(key string) (int64, bool) {
	switch v := r[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return Raw{key: f}.Int64(key)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) || v >= math.MaxInt64 || v < math.MinInt64 {
			return 0, false
		}
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Decode normalizes a bus message into an event object. It accepts a bare
// payload or a {key, value} wrapper, where the payload may be raw bytes,
// JSON text, a serialized byte buffer ({"type":"Buffer","data":[...]}) or an
// already decoded object. ok is false when nothing object-shaped with a type
// field could be recovered.
func Decode(msg any) (Raw, bool) {
	v := normalize(msg)
	if m, isMap := v.(map[string]any); isMap {
		if inner, wrapped := m["value"]; wrapped {
			v = normalize(inner)
		}
	}

	m, isMap := v.(map[string]any)
	if !isMap {
		return nil, false
	}
	raw := Raw(m)
	if raw.Type() == "" {
		return nil, false
	}
	return raw, true
}

func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case []byte:
		return parseText(string(t))
	case json.RawMessage:
		return parseText(string(t))
	case string:
		return parseText(t)
	case map[string]any:
		if b, ok := bufferBytes(t); ok {
			return parseText(string(b))
		}
		return t
	case Raw:
		return map[string]any(t)
	}
	return v
}

// parseText falls back to the raw text when it is not valid JSON.
func parseText(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return s
	}
	if dec.More() {
		return s
	}
	if m, ok := out.(map[string]any); ok {
		if b, isBuf := bufferBytes(m); isBuf {
			return parseText(string(b))
		}
	}
	return out
}

func bufferBytes(m map[string]any) ([]byte, bool) {
	if t, _ := m["type"].(string); t != "Buffer" {
		return nil, false
	}
	data, ok := m["data"].([]any)
	if !ok {
		return nil, false
	}

	out := make([]byte, 0, len(data))
	for _, d := range data {
		var n int64
		switch x := d.(type) {
		case json.Number:
			v, err := x.Int64()
			if err != nil {
				return nil, false
			}
			n = v
		case float64:
			n = int64(x)
		default:
			return nil, false
		}
		if n < 0 || n > 255 {
			return nil, false
		}
		out = append(out, byte(n))
	}
	return out, true
}
