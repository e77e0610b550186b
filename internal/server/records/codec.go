package records

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Decode parses a stored document. The document must be a JSON array of
// objects; missing keys take their defaults, unknown keys are dropped and
// values of the wrong type are coerced leniently.
func Decode(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("malformed document: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("malformed document: trailing data")
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("document is %s, want an array of records", jsonKind(raw))
	}

	out := make([]Record, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("record %d is %s, want an object", i, jsonKind(item))
		}
		out = append(out, fromMap(m))
	}

	return out, nil
}

// Encode renders records as the stored document: 2-space indented array,
// HTML left unescaped, trailing newline.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(records); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func fromMap(m map[string]any) Record {
	return Normalize(Record{
		Name:       textValue(m["name"]),
		Broker:     textValue(m["broker"]),
		ClientID:   textValue(m["client_id"]),
		Mobile:     textValue(m["mobile"]),
		Email:      textValue(m["email"]),
		Password:   textValue(m["password"]),
		APIKey:     textValue(m["api_key"]),
		APISecret:  textValue(m["api_secret"]),
		TOTPSecret: textValue(m["totp_secret"]),
		Lots:       countValue(m["lots"]),
		SL:         countValue(m["sl"]),
		Target:     countValue(m["target"]),
		Active:     flagValue(m["active"]),
	})
}

func textValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// countValue accepts non-negative integers, integral floats and numeric
// strings. Everything else is 0.
func countValue(v any) int {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return 0
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 || n > MaxCount {
			return 0
		}
		return int(n)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f > MaxCount || f != math.Trunc(f) {
		return 0
	}
	return int(f)
}

func flagValue(v any) int {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
	case json.Number:
		if f, err := x.Float64(); err == nil && f != 0 {
			return 1
		}
	case string:
		if truthy(x) {
			return 1
		}
	}
	return 0
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	}
	return fmt.Sprintf("%T", v)
}
