package bencode

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindInteger Kind = iota
	KindBytes
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindDict:
		return "dictionary"
	default:
		return fmt.Sprintf("unknown kind %d", uint8(k))
	}
}

// Value is a single bencode value: an integer, a byte string, a list or a
// dictionary. Values are immutable once constructed and containers own their
// children exclusively. Byte strings may alias the buffer they were decoded
// from; callers must not mutate a buffer while values decoded from it are
// still in use.
type Value struct {
	kind Kind
	num  int64
	raw  []byte
	list []*Value
	dict []DictEntry
}

// DictEntry is one key/value pair of a dictionary. Entries of a constructed
// dictionary are always unique and sorted by raw key bytes, which is also the
// wire order.
type DictEntry struct {
	Key   []byte
	Value *Value
}

func NewInteger(n int64) *Value {
	return &Value{kind: KindInteger, num: n}
}

func NewBytes(b []byte) *Value {
	return &Value{kind: KindBytes, raw: b}
}

func NewString(s string) *Value {
	return &Value{kind: KindBytes, raw: []byte(s)}
}

func NewList(elems ...*Value) *Value {
	return &Value{kind: KindList, list: elems}
}

// NewDict builds a dictionary from the given entries, sorting them by raw key
// bytes. Two entries with the same key are an error.
func NewDict(entries ...DictEntry) (*Value, error) {
	sorted := make([]DictEntry, len(entries))
	copy(sorted, entries)
	slices.SortFunc(sorted, func(a, b DictEntry) bool {
		return bytes.Compare(a.Key, b.Key) < 0
	})
	for i := 1; i < len(sorted); i++ {
		if bytes.Equal(sorted[i-1].Key, sorted[i].Key) {
			return nil, fmt.Errorf("bencode: duplicate dictionary key %q", sorted[i].Key)
		}
	}
	return &Value{kind: KindDict, dict: sorted}, nil
}

// NewDictFromMap builds a dictionary from a map. Go string ordering is
// byte-wise, so sorting the keys yields the canonical entry order directly.
func NewDictFromMap(m map[string]*Value) *Value {
	keys := maps.Keys(m)
	slices.Sort(keys)
	entries := make([]DictEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, DictEntry{Key: []byte(k), Value: m[k]})
	}
	return &Value{kind: KindDict, dict: entries}
}

func (v *Value) Kind() Kind {
	return v.kind
}

// Int64 returns the integer payload, or false if v is not an integer.
func (v *Value) Int64() (int64, bool) {
	if v.kind != KindInteger {
		return 0, false
	}
	return v.num, true
}

// Bytes returns the raw byte string payload, or false if v is not a byte
// string.
func (v *Value) Bytes() ([]byte, bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.raw, true
}

// Text interprets a byte string as UTF-8 text. Bencode strings carry no
// encoding, so this is the one place where text interpretation happens and it
// is allowed to fail.
func (v *Value) Text() (string, error) {
	if v.kind != KindBytes {
		return "", fmt.Errorf("bencode: cannot interpret %s as text", v.kind)
	}
	if !utf8.Valid(v.raw) {
		return "", fmt.Errorf("bencode: byte string %q is not valid utf-8", v.raw)
	}
	return string(v.raw), nil
}

// List returns the elements in order, or false if v is not a list.
func (v *Value) List() ([]*Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	return v.list, true
}

// Dict returns the entries in key order, or false if v is not a dictionary.
func (v *Value) Dict() ([]DictEntry, bool) {
	if v.kind != KindDict {
		return nil, false
	}
	return v.dict, true
}

// Get looks up a dictionary value by key. It returns false if v is not a
// dictionary or the key is absent.
func (v *Value) Get(key string) (*Value, bool) {
	if v.kind != KindDict {
		return nil, false
	}
	for _, e := range v.dict {
		if string(e.Key) == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Len returns the number of elements of a list, entries of a dictionary or
// bytes of a byte string. It is 0 for integers.
func (v *Value) Len() int {
	switch v.kind {
	case KindBytes:
		return len(v.raw)
	case KindList:
		return len(v.list)
	case KindDict:
		return len(v.dict)
	default:
		return 0
	}
}

// Equal reports whether two values are structurally identical.
func (v *Value) Equal(o *Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.num == o.num
	case KindBytes:
		return bytes.Equal(v.raw, o.raw)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindDict:
		if len(v.dict) != len(o.dict) {
			return false
		}
		for i := range v.dict {
			if !bytes.Equal(v.dict[i].Key, o.dict[i].Key) || !v.dict[i].Value.Equal(o.dict[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Compare orders two values in shortlex-order of their canonical encodings.
// Return 0 for equal, -1 for v less than o, and 1 for v greater than o.
func (v *Value) Compare(o *Value) int {
	a := Encode(v)
	b := Encode(o)
	if len(a) < len(b) {
		return -1
	} else if len(a) > len(b) {
		return 1
	}
	return bytes.Compare(a, b)
}
