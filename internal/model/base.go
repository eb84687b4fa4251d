package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a record identity assigned by the data service. The service may
// assign numbers or strings, so both decode; it always encodes as a string.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

func (id *ID) UnmarshalJSON(b []byte) error {
	s, err := scalar(b)
	if err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(s)
	return nil
}

// Flex holds a scalar the data service stores either as a string or as a
// number, such as fees or age. It re-encodes in the form it arrived in.
type Flex struct {
	value  string
	number bool
}

func FlexString(s string) Flex { return Flex{value: s} }

func FlexNumber(f float64) Flex {
	return Flex{value: strconv.FormatFloat(f, 'f', -1, 64), number: true}
}

func (f Flex) String() string { return f.value }

func (f Flex) IsZero() bool { return f.value == "" }

// Float parses the value as a number.
func (f Flex) Float() (float64, bool) {
	v, err := strconv.ParseFloat(f.value, 64)
	return v, err == nil
}

func (f Flex) MarshalJSON() ([]byte, error) {
	if f.number {
		return []byte(f.value), nil
	}
	return json.Marshal(f.value)
}

func (f *Flex) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	s, err := scalar(b)
	if err != nil {
		return err
	}
	*f = Flex{value: s, number: len(b) > 0 && b[0] != '"' && s != ""}
	return nil
}

// scalar decodes a JSON string, number, or null into its string form.
func scalar(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", b)
	}
	return n.String(), nil
}
