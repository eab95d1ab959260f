package bencode

import "fmt"

// ErrorKind identifies why a decode failed.
type ErrorKind uint8

const (
	EmptyInput ErrorKind = iota
	UnrecognizedType
	EmptyInteger
	MalformedInteger
	InvalidLengthPrefix
	TruncatedString
	TruncatedDictionary
	NonStringKey
	DuplicateKey
	UnorderedKeys
	NestingTooDeep
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyInput:
		return "empty input"
	case UnrecognizedType:
		return "unrecognized type"
	case EmptyInteger:
		return "empty integer"
	case MalformedInteger:
		return "malformed integer"
	case InvalidLengthPrefix:
		return "invalid length prefix"
	case TruncatedString:
		return "truncated string"
	case TruncatedDictionary:
		return "truncated dictionary"
	case NonStringKey:
		return "non-string key"
	case DuplicateKey:
		return "duplicate key"
	case UnorderedKeys:
		return "unordered keys"
	case NestingTooDeep:
		return "nesting too deep"
	default:
		return fmt.Sprintf("unknown error kind %d", uint8(k))
	}
}

// DecodeError reports a malformed input together with the byte offset at
// which the problem was detected.
type DecodeError struct {
	Kind   ErrorKind
	Offset int
	msg    string
}

func newDecodeError(kind ErrorKind, offset int, msg string, vars ...interface{}) *DecodeError {
	return &DecodeError{kind, offset, fmt.Sprintf(msg, vars...)}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("bencode: %s at offset %d: %s", e.Kind, e.Offset, e.msg)
}
