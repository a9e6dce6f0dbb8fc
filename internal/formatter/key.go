package formatter

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// StepKey is the sha256 digest of a step's name and key.
type StepKey [sha256.Size]byte

// String returns the hex form of the digest.
func (k StepKey) String() string {
	return hex.EncodeToString(k[:])
}

// KeyOf digests name and key. The key is first rewritten into a tree
// without Go maps, every map becoming its entries sorted by encoded key,
// so equal keys always produce the same digest.
func KeyOf(name string, key any) (StepKey, error) {
	canonical, err := canonicalize(reflect.ValueOf(key))
	if err != nil {
		return StepKey{}, fmt.Errorf("encoding key for %s: %w", name, err)
	}
	payload := struct {
		Name string `msgpack:"name"`
		Key  any    `msgpack:"key"`
	}{name, canonical}
	b, err := msgpack.Marshal(payload)
	if err != nil {
		return StepKey{}, fmt.Errorf("encoding key for %s: %w", name, err)
	}
	return sha256.Sum256(b), nil
}

// entry is one map entry or struct field of a canonical key.
type entry struct {
	_msgpack struct{} `msgpack:",as_array"`
	Key      any
	Value    any
}

// canonicalize converts v into nil, scalars, byte slices, []any and
// []entry. Struct fields follow msgpack tags; unexported fields are
// skipped.
func canonicalize(v reflect.Value) (any, error) {
	switch v.Kind() {
	case reflect.Invalid:
		return nil, nil
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return canonicalize(v.Elem())
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Slice:
		if v.IsNil() {
			return nil, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Bytes(), nil
		}
		return canonicalList(v)
	case reflect.Array:
		return canonicalList(v)
	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		return canonicalMap(v)
	case reflect.Struct:
		return canonicalStruct(v)
	default:
		return nil, fmt.Errorf("unsupported key type %s", v.Type())
	}
}

func canonicalList(v reflect.Value) (any, error) {
	out := make([]any, v.Len())
	for i := range out {
		c, err := canonicalize(v.Index(i))
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func canonicalMap(v reflect.Value) (any, error) {
	type sortable struct {
		encoded []byte
		entry   entry
	}
	items := make([]sortable, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := canonicalize(iter.Key())
		if err != nil {
			return nil, err
		}
		val, err := canonicalize(iter.Value())
		if err != nil {
			return nil, err
		}
		encoded, err := msgpack.Marshal(k)
		if err != nil {
			return nil, err
		}
		items = append(items, sortable{encoded: encoded, entry: entry{Key: k, Value: val}})
	}
	slices.SortFunc(items, func(a, b sortable) int { return bytes.Compare(a.encoded, b.encoded) })

	out := make([]entry, len(items))
	for i, it := range items {
		out[i] = it.entry
	}
	return out, nil
}

func canonicalStruct(v reflect.Value) (any, error) {
	t := v.Type()
	out := make([]entry, 0, t.NumField())
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("msgpack"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		c, err := canonicalize(v.Field(i))
		if err != nil {
			return nil, err
		}
		out = append(out, entry{Key: name, Value: c})
	}
	return out, nil
}
