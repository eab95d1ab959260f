package bencode

import (
	"fmt"
	"reflect"
)

// Given the target pointer, decode the byte slice to it. The input is decoded
// strictly before any reflection happens, so malformed or truncated buffers
// surface as a *DecodeError. The whole buffer must hold exactly one value.
// Struct targets require every tagged field to be present and reject unknown
// keys.
func Deserialize(buf []byte, t interface{}) error {
	v, n, err := Decode(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("bencode: expected to be at end of buffer, %d trailing bytes", len(buf)-n)
	}
	val := reflect.ValueOf(t)
	if val.Kind() != reflect.Pointer {
		return fmt.Errorf("bencode: expected a pointer, got %s", val.Kind())
	}
	out, err := bind(v, val.Type().Elem())
	if err != nil {
		return err
	}
	val.Elem().Set(*out)
	return nil
}

func bind(v *Value, t reflect.Type) (*reflect.Value, error) {
	switch t.Kind() {
	case reflect.Bool:
		n, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("bencode: expected integer for %s, got %s", t, v.Kind())
		}
		if n != 0 && n != 1 {
			return nil, fmt.Errorf("bencode: expected number to be 0 or 1, got %d", n)
		}
		val := reflect.New(t).Elem()
		val.SetBool(n == 1)
		return &val, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("bencode: expected integer for %s, got %s", t, v.Kind())
		}
		val := reflect.New(t).Elem()
		if val.OverflowInt(n) {
			return nil, fmt.Errorf("bencode: %d overflows %s", n, t)
		}
		val.SetInt(n)
		return &val, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("bencode: expected integer for %s, got %s", t, v.Kind())
		}
		if n < 0 {
			return nil, fmt.Errorf("bencode: %d is negative, target is %s", n, t)
		}
		val := reflect.New(t).Elem()
		if val.OverflowUint(uint64(n)) {
			return nil, fmt.Errorf("bencode: %d overflows %s", n, t)
		}
		val.SetUint(uint64(n))
		return &val, nil
	case reflect.String:
		b, ok := v.Bytes()
		if !ok {
			return nil, fmt.Errorf("bencode: expected bytes for %s, got %s", t, v.Kind())
		}
		val := reflect.ValueOf(string(b)).Convert(t)
		return &val, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, ok := v.Bytes()
			if !ok {
				return nil, fmt.Errorf("bencode: expected bytes for %s, got %s", t, v.Kind())
			}
			val := reflect.MakeSlice(t, len(b), len(b))
			reflect.Copy(val, reflect.ValueOf(b))
			return &val, nil
		}
		elems, ok := v.List()
		if !ok {
			return nil, fmt.Errorf("bencode: expected list for %s, got %s", t, v.Kind())
		}
		a := reflect.MakeSlice(t, 0, len(elems))
		for _, e := range elems {
			val, err := bind(e, t.Elem())
			if err != nil {
				return nil, err
			}
			a = reflect.Append(a, *val)
		}
		return &a, nil
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			b, ok := v.Bytes()
			if !ok {
				return nil, fmt.Errorf("bencode: expected bytes for %s, got %s", t, v.Kind())
			}
			if len(b) != t.Len() {
				return nil, fmt.Errorf("bencode: expected %d bytes for %s, got %d", t.Len(), t, len(b))
			}
			valPtr := reflect.New(t)
			reflect.Copy(reflect.Indirect(valPtr), reflect.ValueOf(b))
			val := reflect.Indirect(valPtr)
			return &val, nil
		}
		elems, ok := v.List()
		if !ok {
			return nil, fmt.Errorf("bencode: expected list for %s, got %s", t, v.Kind())
		}
		if len(elems) != t.Len() {
			return nil, fmt.Errorf("bencode: expected %d elements for %s, got %d", t.Len(), t, len(elems))
		}
		valPtr := reflect.New(t)
		for i, e := range elems {
			val, err := bind(e, t.Elem())
			if err != nil {
				return nil, err
			}
			reflect.Indirect(valPtr).Index(i).Set(*val)
		}
		val := reflect.Indirect(valPtr)
		return &val, nil
	case reflect.Struct:
		return bindStruct(v, t)
	case reflect.Map:
		return bindMap(v, t)
	case reflect.Pointer:
		out, err := bind(v, t.Elem())
		if err != nil {
			return nil, err
		}
		val := reflect.New(t.Elem())
		val.Elem().Set(*out)
		return &val, nil
	default:
		return nil, fmt.Errorf("bencode: unhandled kind %v", t.Kind())
	}
}

func bindStruct(v *Value, t reflect.Type) (*reflect.Value, error) {
	entries, ok := v.Dict()
	if !ok {
		return nil, fmt.Errorf("bencode: expected dictionary for %s, got %s", t, v.Kind())
	}
	fields, names, err := taggedFields(t)
	if err != nil {
		return nil, err
	}
	structValue := reflect.New(t).Elem()
	for i, name := range names {
		if i >= len(entries) {
			return nil, fmt.Errorf("bencode: missing key for %s", name)
		}
		if got := string(entries[i].Key); got != name {
			return nil, fmt.Errorf("bencode: missing key for %s got %s instead", name, got)
		}
		val, err := bind(entries[i].Value, fields[name].Type)
		if err != nil {
			return nil, err
		}
		structValue.FieldByName(fields[name].Name).Set(*val)
	}
	if len(entries) > len(names) {
		return nil, fmt.Errorf("bencode: unknown key %s for %s", entries[len(names)].Key, t)
	}
	return &structValue, nil
}

func bindMap(v *Value, t reflect.Type) (*reflect.Value, error) {
	entries, ok := v.Dict()
	if !ok {
		return nil, fmt.Errorf("bencode: expected dictionary for %s, got %s", t, v.Kind())
	}
	keyType := t.Key()
	m := reflect.MakeMapWithSize(t, len(entries))
	for _, e := range entries {
		key, err := bindKey(e.Key, keyType)
		if err != nil {
			return nil, err
		}
		val, err := bind(e.Value, t.Elem())
		if err != nil {
			return nil, err
		}
		m.SetMapIndex(*key, *val)
	}
	return &m, nil
}

func bindKey(b []byte, t reflect.Type) (*reflect.Value, error) {
	switch t.Kind() {
	case reflect.String:
		val := reflect.ValueOf(string(b)).Convert(t)
		return &val, nil
	case reflect.Array:
		if t.Elem().Kind() != reflect.Uint8 {
			return nil, fmt.Errorf("bencode: cannot use %s as a dictionary key", t)
		}
		if len(b) != t.Len() {
			return nil, fmt.Errorf("bencode: expected %d key bytes for %s, got %d", t.Len(), t, len(b))
		}
		valPtr := reflect.New(t)
		reflect.Copy(reflect.Indirect(valPtr), reflect.ValueOf(b))
		val := reflect.Indirect(valPtr)
		return &val, nil
	default:
		return nil, fmt.Errorf("bencode: cannot use %s as a dictionary key", t)
	}
}
