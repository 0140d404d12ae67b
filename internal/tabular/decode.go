package tabular

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

// ErrNotArray is returned by DecodeRecords when the document is not a JSON array
var ErrNotArray = errors.New("tabular: expected a JSON array of records")

// ParseJSON decodes a single JSON document into an order-preserving Value
func ParseJSON(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads exactly one JSON document from r
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return Value{}, fmt.Errorf("tabular: unexpected data after top-level value")
		}
		return Value{}, fmt.Errorf("tabular: %w", err)
	}
	return v, nil
}

// DecodeRecords decodes a JSON array and returns its elements
func DecodeRecords(r io.Reader) ([]Value, error) {
	v, err := Decode(r)
	if err != nil {
		return nil, err
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, fmt.Errorf("%w, got %s", ErrNotArray, v.Kind())
	}
	return items, nil
}

// MustParseJSON is ParseJSON for fixtures; it panics on malformed input.
func MustParseJSON(data string) Value {
	v, err := ParseJSON([]byte(data))
	if err != nil {
		panic(err)
	}
	return v
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return Value{}, fmt.Errorf("tabular: unexpected end of input")
		}
		return Value{}, fmt.Errorf("tabular: %w", err)
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("tabular: unexpected delimiter %q", rune(t))
		}
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("tabular: invalid number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case float64:
		return Number(t), nil
	default:
		return Value{}, fmt.Errorf("tabular: unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	o := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("tabular: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, fmt.Errorf("tabular: object key must be a string, got %T", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		o.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("tabular: %w", err)
	}
	return ObjectValue(o), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	items := make([]Value, 0)
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, fmt.Errorf("tabular: %w", err)
	}
	return Array(items...), nil
}
