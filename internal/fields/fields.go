// Package fields implements tolerant dotted-path extraction over loosely
// structured JSON documents.
//
// Participant APIs routinely deviate from the published schemas, so every
// accessor comes in an optional flavor, where a missing key or a value of the
// wrong type yields absent, and a required flavor, where the same condition
// is reported as a RequiredFieldError carrying the path and the expected type.
package fields

import (
	"fmt"
	"strconv"
	"strings"
)

// Doc is a JSON object as decoded by encoding/json.
type Doc = map[string]any

// RequiredFieldError reports a required field that is missing or does not
// have the expected type.
type RequiredFieldError struct {
	Path string
	Want string
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("required field %q missing or not a valid %s", e.Path, e.Want)
}

// Lookup traverses doc key by key along the dotted path.
// It returns false if any intermediate key is missing, any intermediate value
// is not an object, or the target value is null.
func Lookup(doc Doc, path string) (any, bool) {
	var cur any = doc
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string value at path, converting scalars when possible.
func String(doc Doc, path string) (string, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return "", false
	}
	return coerceString(v)
}

// RequiredString behaves like String but returns a RequiredFieldError when absent or invalid.
func RequiredString(doc Doc, path string) (string, error) {
	s, ok := String(doc, path)
	if !ok {
		return "", &RequiredFieldError{Path: path, Want: "string"}
	}
	return s, nil
}

// Float returns the numeric value at path, parsing strings when necessary.
func Float(doc Doc, path string) (float64, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return 0, false
	}
	return coerceFloat(v)
}

// RequiredFloat behaves like Float but returns a RequiredFieldError when absent or invalid.
func RequiredFloat(doc Doc, path string) (float64, error) {
	f, ok := Float(doc, path)
	if !ok {
		return 0, &RequiredFieldError{Path: path, Want: "number"}
	}
	return f, nil
}

// Int returns the integer value at path. Fractional numbers are truncated,
// strings must parse as base-10 integers.
func Int(doc Doc, path string) (int64, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

// RequiredInt behaves like Int but returns a RequiredFieldError when absent or invalid.
func RequiredInt(doc Doc, path string) (int64, error) {
	i, ok := Int(doc, path)
	if !ok {
		return 0, &RequiredFieldError{Path: path, Want: "integer"}
	}
	return i, nil
}

// Bool returns the boolean value at path. Strings parse per strconv.ParseBool
// and numbers map to their zero test.
func Bool(doc Doc, path string) (bool, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, false
		}
		return b, true
	case float64:
		return t != 0, true
	}
	return false, false
}

// List returns the array value at path. No coercion is attempted: any other
// shape is absent.
func List(doc Doc, path string) ([]any, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

// RequiredList behaves like List but returns a RequiredFieldError when absent or invalid.
func RequiredList(doc Doc, path string) ([]any, error) {
	l, ok := List(doc, path)
	if !ok {
		return nil, &RequiredFieldError{Path: path, Want: "list"}
	}
	return l, nil
}

// Map returns the object value at path. No coercion is attempted.
func Map(doc Doc, path string) (Doc, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// DigitsInt reads the value at path as a string, strips every non-digit
// character and parses the remainder as an integer.
//
// Several institutions format identifiers and postal codes with punctuation
// even though the documentation tells them not to.
func DigitsInt(doc Doc, path string) (int64, bool) {
	s, ok := String(doc, path)
	if !ok {
		return 0, false
	}
	return ParseDigits(s)
}

// ParseDigits strips every non-digit character from s and parses the
// remainder as a base-10 integer.
func ParseDigits(s string) (int64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	i, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}
