package bencode

import (
	"bytes"
	"fmt"
	"math"
	"reflect"

	"golang.org/x/exp/slices"
)

// Serialize a ptr to a bencode-encoded byte-slice. Struct fields are mapped
// through their `bencode:".."` tags and land in sorted tag order; map entries
// land in sorted key order. Map keys must be strings or fixed-size byte
// arrays, since bencode dictionary keys are byte strings on the wire.
func Serialize(s interface{}) ([]byte, error) {
	val := reflect.ValueOf(s)
	if val.Type().Kind() != reflect.Ptr {
		return nil, fmt.Errorf("bencode: expected a pointer, got %s", val.Type().Kind())
	}
	v, err := valueOf(val.Elem())
	if err != nil {
		return nil, err
	}
	return Encode(v), nil
}

// Compare two structs in shortlex-order based on their bencode-encoding.
// Return 0 for equal, -1 for a is less than b, and 1 for a is greater than b.
func Compare(a interface{}, b interface{}) (int, error) {
	abytes, err := Serialize(a)
	if err != nil {
		return 0, err
	}
	bbytes, err := Serialize(b)
	if err != nil {
		return 0, err
	}
	if len(abytes) < len(bbytes) {
		return -1, nil
	} else if len(abytes) > len(bbytes) {
		return 1, nil
	}
	return bytes.Compare(abytes, bbytes), nil
}

func valueOf(v reflect.Value) (*Value, error) {
	switch v.Type().Kind() {
	case reflect.Bool:
		if v.Bool() {
			return NewInteger(1), nil
		}
		return NewInteger(0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInteger(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := v.Uint()
		if n > math.MaxInt64 {
			return nil, fmt.Errorf("bencode: %d does not fit a signed 64-bit integer", n)
		}
		return NewInteger(int64(n)), nil
	case reflect.String:
		return NewString(v.String()), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return NewBytes(b), nil
		}
		return listOf(v)
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return NewBytes(b), nil
		}
		return listOf(v)
	case reflect.Struct:
		return structValue(v)
	case reflect.Map:
		return mapValue(v)
	case reflect.Pointer:
		return valueOf(reflect.Indirect(v))
	default:
		return nil, fmt.Errorf("bencode: unrecognized value type %s", v.Type().Kind())
	}
}

func listOf(v reflect.Value) (*Value, error) {
	elems := make([]*Value, v.Len())
	for i := 0; i != v.Len(); i++ {
		e, err := valueOf(v.Index(i))
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return NewList(elems...), nil
}

func mapValue(v reflect.Value) (*Value, error) {
	entries := make([]DictEntry, 0, v.Len())
	for _, k := range v.MapKeys() {
		kb, err := keyBytes(k)
		if err != nil {
			return nil, err
		}
		val, err := valueOf(v.MapIndex(k))
		if err != nil {
			return nil, err
		}
		entries = append(entries, DictEntry{Key: kb, Value: val})
	}
	return NewDict(entries...)
}

func keyBytes(k reflect.Value) ([]byte, error) {
	switch k.Type().Kind() {
	case reflect.String:
		return []byte(k.String()), nil
	case reflect.Array:
		if k.Type().Elem().Kind() != reflect.Uint8 {
			return nil, fmt.Errorf("bencode: cannot use %s as a dictionary key", k.Type())
		}
		b := make([]byte, k.Len())
		reflect.Copy(reflect.ValueOf(b), k)
		return b, nil
	default:
		return nil, fmt.Errorf("bencode: cannot use %s as a dictionary key", k.Type())
	}
}

// taggedFields maps bencode tag names to struct fields, requiring a tag on
// every exported field. The returned names are sorted, which for tag strings
// is also raw byte order.
func taggedFields(ty reflect.Type) (map[string]reflect.StructField, []string, error) {
	fields := make(map[string]reflect.StructField)
	names := make([]string, 0, ty.NumField())
	for i := 0; i != ty.NumField(); i++ {
		f := ty.Field(i)
		if !f.IsExported() {
			continue
		}
		t := f.Tag.Get("bencode")
		if t == "" {
			return nil, nil, fmt.Errorf("bencode: expected bencode tag on field %s of %s", f.Name, ty)
		}
		if _, ok := fields[t]; ok {
			return nil, nil, fmt.Errorf("bencode: duplicate tag %q on %s", t, ty)
		}
		fields[t] = f
		names = append(names, t)
	}
	slices.Sort(names)
	return fields, names, nil
}

func structValue(v reflect.Value) (*Value, error) {
	fields, names, err := taggedFields(v.Type())
	if err != nil {
		return nil, err
	}
	entries := make([]DictEntry, 0, len(names))
	for _, name := range names {
		field := v.FieldByName(fields[name].Name)
		val, err := valueOf(field)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DictEntry{Key: []byte(name), Value: val})
	}
	return &Value{kind: KindDict, dict: entries}, nil
}
