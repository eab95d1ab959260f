// This package implements a strict codec for the bencode wire format: integers,
// byte strings, lists and dictionaries with byte-sorted keys. Decoding goes
// through a tagged Value tree and reports the exact number of bytes consumed,
// so values can be read out of a larger buffer. Encoding always emits the
// canonical form. A reflection layer (Serialize/Deserialize) maps tagged
// structs to and from the wire using `bencode:".."` tags, with support for
// fixed-byte array map keys.
package bencode

const (
	numberStart    = 0x69
	dictStart      = 0x64
	listStart      = 0x6c
	bencodeEnd     = 0x65
	bytesLengthSep = 0x3a
)
