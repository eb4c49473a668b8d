package cryptox

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Record is a generic document whose named fields may be sealed.
type Record map[string]any

// EncryptObject returns a copy of rec with every listed, present, non-nil
// field sealed. Structured values (maps, slices, structs) are serialized to
// JSON first. An inactive cipher returns rec itself.
func (c *Cipher) EncryptObject(rec Record, fields []string) (Record, error) {
	if rec == nil || !c.active() {
		return rec, nil
	}

	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}

	for _, f := range fields {
		v, ok := rec[f]
		if !ok || v == nil {
			continue
		}
		text, err := stringify(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f, err)
		}
		sealed, err := c.EncryptValue(text)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f, err)
		}
		out[f] = sealed
	}
	return out, nil
}

// DecryptObject returns a copy of rec with every listed string field opened.
// Opened text that looks like a JSON object or array is parsed back.
// An inactive cipher returns rec itself.
func (c *Cipher) DecryptObject(rec Record, fields []string) Record {
	if rec == nil || !c.active() {
		return rec
	}

	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}

	for _, f := range fields {
		s, ok := rec[f].(string)
		if !ok {
			continue
		}
		plain := c.DecryptValue(s)
		out[f] = plain
		if strings.HasPrefix(plain, "{") || strings.HasPrefix(plain, "[") {
			var parsed any
			if err := json.Unmarshal([]byte(plain), &parsed); err == nil {
				out[f] = parsed
			}
		}
	}
	return out
}

// SealFields encrypts each referenced string in place. Nil pointers are skipped.
func (c *Cipher) SealFields(fields ...*string) error {
	for _, f := range fields {
		if f == nil {
			continue
		}
		sealed, err := c.EncryptValue(*f)
		if err != nil {
			return err
		}
		*f = sealed
	}
	return nil
}

// OpenFields decrypts each referenced string in place. Nil pointers are skipped.
func (c *Cipher) OpenFields(fields ...*string) {
	for _, f := range fields {
		if f == nil {
			continue
		}
		*f = c.DecryptValue(*f)
	}
}

func stringify(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(v), nil
	}
}
