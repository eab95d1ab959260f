package bencode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func decodeKind(t *testing.T, buf string, kind ErrorKind) *DecodeError {
	t.Helper()
	_, _, err := Decode([]byte(buf))
	require.NotNil(t, err, "input %q", buf)
	var derr *DecodeError
	require.True(t, errors.As(err, &derr), "input %q: %v", buf, err)
	require.Equal(t, kind, derr.Kind, "input %q: %v", buf, err)
	return derr
}

func TestDecodeIntegers(t *testing.T) {
	require := require.New(t)

	v, n, err := Decode([]byte("i42e"))
	require.Nil(err)
	require.Equal(4, n)
	num, ok := v.Int64()
	require.True(ok)
	require.Equal(int64(42), num)

	v, n, err = Decode([]byte("i0e"))
	require.Nil(err)
	require.Equal(3, n)
	num, _ = v.Int64()
	require.Equal(int64(0), num)

	v, n, err = Decode([]byte("i-42e"))
	require.Nil(err)
	require.Equal(5, n)
	num, _ = v.Int64()
	require.Equal(int64(-42), num)

	v, _, err = Decode([]byte("i9223372036854775807e"))
	require.Nil(err)
	num, _ = v.Int64()
	require.Equal(int64(9223372036854775807), num)
}

func TestDecodeMalformedIntegers(t *testing.T) {
	decodeKind(t, "i042e", MalformedInteger)
	decodeKind(t, "i-0e", MalformedInteger)
	decodeKind(t, "i-042e", MalformedInteger)
	decodeKind(t, "ie", EmptyInteger)
	decodeKind(t, "i-e", MalformedInteger)
	decodeKind(t, "i32be", MalformedInteger)
	decodeKind(t, "i42", MalformedInteger)
	decodeKind(t, "i9223372036854775808e", MalformedInteger)
	decodeKind(t, "i-9223372036854775809e", MalformedInteger)

	derr := decodeKind(t, "i042e", MalformedInteger)
	require.Equal(t, 0, derr.Offset)
	derr = decodeKind(t, "li-0ee", MalformedInteger)
	require.Equal(t, 1, derr.Offset)
}

func TestDecodeStrings(t *testing.T) {
	require := require.New(t)

	v, n, err := Decode([]byte("4:spam"))
	require.Nil(err)
	require.Equal(6, n)
	b, ok := v.Bytes()
	require.True(ok)
	require.Equal([]byte("spam"), b)

	v, n, err = Decode([]byte("0:"))
	require.Nil(err)
	require.Equal(2, n)
	require.Equal(0, v.Len())

	// trailing bytes are left for the caller
	v, n, err = Decode([]byte("4:spami42e"))
	require.Nil(err)
	require.Equal(6, n)
	require.Equal(KindBytes, v.Kind())
}

func TestDecodeMalformedStrings(t *testing.T) {
	derr := decodeKind(t, "4:spa", TruncatedString)
	require.Equal(t, 0, derr.Offset)
	decodeKind(t, "4:", TruncatedString)
	decodeKind(t, "1x:a", InvalidLengthPrefix)
	decodeKind(t, "4", InvalidLengthPrefix)
	decodeKind(t, "-1:spam", UnrecognizedType)
	decodeKind(t, "123456789012345678901234567890:a", InvalidLengthPrefix)
}

func TestDecodeLists(t *testing.T) {
	require := require.New(t)

	v, n, err := Decode([]byte("le"))
	require.Nil(err)
	require.Equal(2, n)
	elems, ok := v.List()
	require.True(ok)
	require.Equal(0, len(elems))

	v, n, err = Decode([]byte("l4:spami42ee"))
	require.Nil(err)
	require.Equal(12, n)
	elems, _ = v.List()
	require.Equal(2, len(elems))
	b, _ := elems[0].Bytes()
	require.Equal([]byte("spam"), b)
	num, _ := elems[1].Int64()
	require.Equal(int64(42), num)

	v, n, err = Decode([]byte("ll4:spameli42eee"))
	require.Nil(err)
	require.Equal(16, n)
	elems, _ = v.List()
	require.Equal(2, len(elems))
	inner, _ := elems[1].List()
	require.Equal(1, len(inner))
}

func TestDecodeMalformedLists(t *testing.T) {
	decodeKind(t, "l", EmptyInput)
	decodeKind(t, "l4:spam", EmptyInput)
	decodeKind(t, "l4:spa", TruncatedString)
	decodeKind(t, "lxe", UnrecognizedType)
}

func TestDecodeDictionaries(t *testing.T) {
	require := require.New(t)

	v, n, err := Decode([]byte("de"))
	require.Nil(err)
	require.Equal(2, n)
	entries, ok := v.Dict()
	require.True(ok)
	require.Equal(0, len(entries))

	v, n, err = Decode([]byte("d3:bar4:spam3:fooi42ee"))
	require.Nil(err)
	require.Equal(22, n)
	bar, ok := v.Get("bar")
	require.True(ok)
	b, _ := bar.Bytes()
	require.Equal([]byte("spam"), b)
	foo, ok := v.Get("foo")
	require.True(ok)
	num, _ := foo.Int64()
	require.Equal(int64(42), num)
	_, ok = v.Get("baz")
	require.False(ok)
}

func TestDecodeNestedMetainfoShape(t *testing.T) {
	require := require.New(t)

	input := []byte("d8:announce3:url4:infod5:filesld6:lengthi42e4:path4:spamee6:locale2:en6:pieces20:aaaaaaaaaaaaaaaaaaaaee")
	v, n, err := Decode(input)
	require.Nil(err)
	require.Equal(len(input), n)

	info, ok := v.Get("info")
	require.True(ok)
	files, ok := info.Get("files")
	require.True(ok)
	elems, _ := files.List()
	require.Equal(1, len(elems))
	length, ok := elems[0].Get("length")
	require.True(ok)
	num, _ := length.Int64()
	require.Equal(int64(42), num)
	pieces, ok := info.Get("pieces")
	require.True(ok)
	require.Equal(20, pieces.Len())
}

func TestDecodeMalformedDictionaries(t *testing.T) {
	derr := decodeKind(t, "d3:fooi42e3:bar4:spame", UnorderedKeys)
	require.Equal(t, 10, derr.Offset)
	decodeKind(t, "d3:fooi1e3:fooi2ee", DuplicateKey)
	derr = decodeKind(t, "d3:foo", TruncatedDictionary)
	require.Equal(t, 6, derr.Offset)
	decodeKind(t, "d", TruncatedDictionary)
	decodeKind(t, "di1ei2ee", NonStringKey)
	decodeKind(t, "dle4:spame", NonStringKey)
	decodeKind(t, "d3:foo4:spa", TruncatedString)
	decodeKind(t, "dxe", UnrecognizedType)
}

func TestDecodeLenientKeyOrder(t *testing.T) {
	require := require.New(t)
	d := NewDecoder(WithLenientKeyOrder())

	v, n, err := d.Decode([]byte("d3:fooi42e3:bar4:spame"))
	require.Nil(err)
	require.Equal(22, n)
	// re-encoding yields the canonical order, not the input order
	require.Equal([]byte("d3:bar4:spam3:fooi42ee"), Encode(v))

	// duplicates stay an error even when order is forgiven
	_, _, err = d.Decode([]byte("d3:fooi1e3:fooi2ee"))
	require.NotNil(err)
	var derr *DecodeError
	require.True(errors.As(err, &derr))
	require.Equal(DuplicateKey, derr.Kind)
}

func TestDecodeEmptyAndUnrecognized(t *testing.T) {
	derr := decodeKind(t, "", EmptyInput)
	require.Equal(t, 0, derr.Offset)
	decodeKind(t, "x", UnrecognizedType)
	decodeKind(t, ":", UnrecognizedType)
	decodeKind(t, "e", UnrecognizedType)
}

func TestDecodeNestingTooDeep(t *testing.T) {
	require := require.New(t)

	_, _, err := Decode([]byte(strings.Repeat("l", DefaultMaxDepth+1)))
	var derr *DecodeError
	require.True(errors.As(err, &derr))
	require.Equal(NestingTooDeep, derr.Kind)

	d := NewDecoder(WithMaxDepth(2))
	_, _, err = d.Decode([]byte("llee"))
	require.Nil(err)
	_, _, err = d.Decode([]byte("llleee"))
	require.True(errors.As(err, &derr))
	require.Equal(NestingTooDeep, derr.Kind)
	require.Equal(2, derr.Offset)
}

func TestDecodeTruncationAlwaysFails(t *testing.T) {
	require := require.New(t)

	valid := []string{
		"i42e",
		"i-42e",
		"4:spam",
		"l4:spami42ee",
		"d3:bar4:spam3:fooi42ee",
		"d8:announce3:url4:infod6:lengthi42eee",
	}
	for _, s := range valid {
		for i := 0; i < len(s); i++ {
			_, _, err := Decode([]byte(s[:i]))
			require.NotNil(err, "prefix %q of %q", s[:i], s)
			var derr *DecodeError
			require.True(errors.As(err, &derr), "prefix %q of %q", s[:i], s)
			require.GreaterOrEqual(derr.Offset, 0)
			require.LessOrEqual(derr.Offset, i)
		}
	}
}
