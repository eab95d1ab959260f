package bencode

import (
	"bytes"
	"strconv"

	"golang.org/x/exp/slices"
)

// DefaultMaxDepth is the container nesting depth a decoder accepts unless
// configured otherwise. Recursion tracks nesting, so the cap bounds stack
// usage against adversarial input.
const DefaultMaxDepth = 2048

// Decoder holds decode policy. The zero policy (strict key order, default
// depth cap) is what NewDecoder returns without options.
type Decoder struct {
	maxDepth       int
	lenientDictKey bool
}

type Option func(*Decoder)

// WithMaxDepth caps the container nesting depth. Values nested deeper fail
// with NestingTooDeep.
func WithMaxDepth(n int) Option {
	return func(d *Decoder) {
		d.maxDepth = n
	}
}

// WithLenientKeyOrder accepts dictionaries whose keys are not sorted and
// reorders them on ingest, so re-encoding yields the canonical form rather
// than echoing the unordered input. Duplicate keys stay an error.
func WithLenientKeyOrder() Option {
	return func(d *Decoder) {
		d.lenientDictKey = true
	}
}

func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Decode parses one complete value from the front of buf with the default
// policy, returning the value and the exact number of bytes consumed. The
// consumed count is where the next sibling value begins when buf holds more
// than one.
func Decode(buf []byte) (*Value, int, error) {
	return NewDecoder().Decode(buf)
}

func (d *Decoder) Decode(buf []byte) (*Value, int, error) {
	r := &reader{buf: buf, maxDepth: d.maxDepth, lenientDictKey: d.lenientDictKey}
	v, err := r.readValue(1)
	if err != nil {
		return nil, 0, err
	}
	return v, r.pos, nil
}

type reader struct {
	buf            []byte
	pos            int
	maxDepth       int
	lenientDictKey bool
}

func (r *reader) peek() (byte, bool) {
	if r.pos >= len(r.buf) {
		return 0, false
	}
	return r.buf[r.pos], true
}

func (r *reader) readValue(depth int) (*Value, error) {
	if depth > r.maxDepth {
		return nil, newDecodeError(NestingTooDeep, r.pos, "nesting deeper than %d", r.maxDepth)
	}
	c, ok := r.peek()
	if !ok {
		return nil, newDecodeError(EmptyInput, r.pos, "no input where a value was expected")
	}
	switch {
	case c == numberStart:
		return r.readInteger()
	case c == listStart:
		return r.readList(depth)
	case c == dictStart:
		return r.readDict(depth)
	case c >= 0x30 && c <= 0x39:
		b, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		return NewBytes(b), nil
	default:
		return nil, newDecodeError(UnrecognizedType, r.pos, "unrecognized type prefix 0x%x", c)
	}
}

func (r *reader) readInteger() (*Value, error) {
	start := r.pos
	end := r.pos + 1
	for end < len(r.buf) && r.buf[end] != bencodeEnd {
		end++
	}
	if end == len(r.buf) {
		return nil, newDecodeError(MalformedInteger, start, "unterminated integer")
	}
	lit := r.buf[start+1 : end]
	if len(lit) == 0 {
		return nil, newDecodeError(EmptyInteger, start, "empty integer")
	}
	digits := lit
	if digits[0] == 0x2d {
		digits = digits[1:]
		if len(digits) == 0 {
			return nil, newDecodeError(MalformedInteger, start, "sign without digits")
		}
		if digits[0] == 0x30 {
			return nil, newDecodeError(MalformedInteger, start, "negative zero or zero-padded negative")
		}
	}
	if digits[0] == 0x30 && len(digits) != 1 {
		return nil, newDecodeError(MalformedInteger, start, "leading zeros")
	}
	for _, c := range digits {
		if c < 0x30 || c > 0x39 {
			return nil, newDecodeError(MalformedInteger, start, "non-digit 0x%x in integer", c)
		}
	}
	n, err := strconv.ParseInt(string(lit), 10, 64)
	if err != nil {
		return nil, newDecodeError(MalformedInteger, start, "integer %s out of range", lit)
	}
	r.pos = end + 1
	return NewInteger(n), nil
}

func (r *reader) readBytes() ([]byte, error) {
	start := r.pos
	bLen := 0
	for r.pos+bLen < len(r.buf) {
		c := r.buf[r.pos+bLen]
		if c < 0x30 || c > 0x39 {
			break
		}
		bLen++
	}
	if bLen == 0 {
		return nil, newDecodeError(InvalidLengthPrefix, start, "expected 1 or more digits")
	}
	if r.pos+bLen == len(r.buf) {
		return nil, newDecodeError(InvalidLengthPrefix, start, "length prefix without separator")
	}
	if sep := r.buf[r.pos+bLen]; sep != bytesLengthSep {
		return nil, newDecodeError(InvalidLengthPrefix, start, "expected 0x%x after length, got 0x%x", bytesLengthSep, sep)
	}
	l, err := strconv.Atoi(string(r.buf[r.pos : r.pos+bLen]))
	if err != nil {
		return nil, newDecodeError(InvalidLengthPrefix, start, "length %s out of range", r.buf[r.pos:r.pos+bLen])
	}
	body := r.pos + bLen + 1
	if l > len(r.buf)-body {
		return nil, newDecodeError(TruncatedString, start, "need %d bytes, have %d", l, len(r.buf)-body)
	}
	b := r.buf[body : body+l]
	r.pos = body + l
	return b, nil
}

func (r *reader) readList(depth int) (*Value, error) {
	r.pos++
	elems := []*Value{}
	for {
		c, ok := r.peek()
		if !ok {
			return nil, newDecodeError(EmptyInput, r.pos, "unterminated list")
		}
		if c == bencodeEnd {
			r.pos++
			return NewList(elems...), nil
		}
		v, err := r.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
	}
}

func (r *reader) readDict(depth int) (*Value, error) {
	r.pos++
	entries := []DictEntry{}
	var prevKey []byte
	havePrev := false
	for {
		c, ok := r.peek()
		if !ok {
			return nil, newDecodeError(TruncatedDictionary, r.pos, "unterminated dictionary")
		}
		if c == bencodeEnd {
			r.pos++
			break
		}
		keyStart := r.pos
		if c == numberStart || c == listStart || c == dictStart {
			return nil, newDecodeError(NonStringKey, keyStart, "dictionary key must be a byte string")
		}
		if c < 0x30 || c > 0x39 {
			return nil, newDecodeError(UnrecognizedType, keyStart, "unrecognized type prefix 0x%x", c)
		}
		key, err := r.readBytes()
		if err != nil {
			return nil, err
		}
		if havePrev && !r.lenientDictKey && bytes.Compare(prevKey, key) >= 0 {
			if bytes.Equal(prevKey, key) {
				return nil, newDecodeError(DuplicateKey, keyStart, "duplicate key %q", key)
			}
			return nil, newDecodeError(UnorderedKeys, keyStart, "key %q out of order after %q", key, prevKey)
		}
		if r.lenientDictKey {
			for _, e := range entries {
				if bytes.Equal(e.Key, key) {
					return nil, newDecodeError(DuplicateKey, keyStart, "duplicate key %q", key)
				}
			}
		}
		prevKey = key
		havePrev = true
		if _, ok := r.peek(); !ok {
			return nil, newDecodeError(TruncatedDictionary, r.pos, "dictionary ends before value for key %q", key)
		}
		v, err := r.readValue(depth + 1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, DictEntry{Key: key, Value: v})
	}
	if r.lenientDictKey {
		slices.SortFunc(entries, func(a, b DictEntry) bool {
			return bytes.Compare(a.Key, b.Key) < 0
		})
	}
	return &Value{kind: KindDict, dict: entries}, nil
}
