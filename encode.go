package bencode

import (
	"bytes"
	"strconv"
)

// Encode serializes v to its canonical encoding: minimal integer text, exact
// length prefixes and dictionary entries in raw byte order of their keys.
// Dictionary invariants are enforced at construction time, so encoding is
// total and has no error path.
func Encode(v *Value) []byte {
	w := newWriter()
	w.writeValue(v)
	return w.buf.Bytes()
}

type writer struct {
	buf bytes.Buffer
}

func newWriter() *writer {
	return &writer{}
}

func (w *writer) writeBytes(b []byte) {
	w.buf.WriteString(strconv.Itoa(len(b)))
	w.buf.WriteByte(bytesLengthSep)
	w.buf.Write(b)
}

func (w *writer) writeNumber(n int64) {
	w.buf.WriteByte(numberStart)
	w.buf.WriteString(strconv.FormatInt(n, 10))
	w.buf.WriteByte(bencodeEnd)
}

func (w *writer) writeValue(v *Value) {
	switch v.kind {
	case KindInteger:
		w.writeNumber(v.num)
	case KindBytes:
		w.writeBytes(v.raw)
	case KindList:
		w.buf.WriteByte(listStart)
		for _, e := range v.list {
			w.writeValue(e)
		}
		w.buf.WriteByte(bencodeEnd)
	case KindDict:
		w.buf.WriteByte(dictStart)
		for _, e := range v.dict {
			w.writeBytes(e.Key)
			w.writeValue(e.Value)
		}
		w.buf.WriteByte(bencodeEnd)
	}
}
