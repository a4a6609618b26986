package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// The upstream API is loosely typed: titles may arrive as bare numbers,
// counters as strings, and empty objects as []. These types absorb that.

// FlexString accepts a JSON string, number or bool. Numbers keep their
// literal text; null decodes to "".
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || isNull(data):
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	case data[0] == '{' || data[0] == '[':
		*s = ""
	default:
		*s = FlexString(data)
	}
	return nil
}

func (s FlexString) String() string {
	return string(s)
}

// FlexInt accepts an integer, a float (truncated) or a numeric string.
type FlexInt int

func (i *FlexInt) UnmarshalJSON(data []byte) error {
	*i = FlexInt(math.Trunc(parseNumber(data)))
	return nil
}

// FlexBool accepts true/false, 0/1 and their string forms.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch strings.Trim(string(data), `"`) {
	case "true", "1":
		*b = true
	case "", "false", "0", "null":
		*b = false
	default:
		*b = parseNumber(data) != 0
	}
	return nil
}

func parseNumber(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return 0
	}
	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return 0
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func isNull(data []byte) bool {
	return bytes.Equal(data, []byte("null"))
}

// isEmptyContainer reports null, [] or {} payloads, which upstream uses
// interchangeably for "nothing here".
func isEmptyContainer(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isNull(data) {
		return true
	}
	if data[0] != '[' && data[0] != '{' {
		return false
	}
	inner := bytes.TrimSpace(data[1 : len(data)-1])
	return len(inner) == 0
}

// isObject reports whether data is a JSON object.
func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// walkObject calls fn for each member of a JSON object in document order.
func walkObject(data []byte, fn func(key string, value json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return err
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}

	_, err = dec.Token()
	return err
}
