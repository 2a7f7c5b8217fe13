package protocol

import (
	"fmt"
	"math"
)

// Fixed field sizes in bytes.
const (
	Int32Size = 4
	Int8Size  = 1
)

// MaxLength is the largest value an int32 length field can declare.
const MaxLength = math.MaxInt32

// Tag marks the kind of tree node that follows on the wire.
type Tag int8

const (
	TagEnd  Tag = 0x00
	TagFile Tag = 0x01
	TagDir  Tag = 0x02
)

func (t Tag) String() string {
	switch t {
	case TagEnd:
		return "end"
	case TagFile:
		return "file"
	case TagDir:
		return "dir"
	default:
		return fmt.Sprintf("tag(%d)", int8(t))
	}
}

// ParseTag validates a raw tag byte.
func ParseTag(v int8) (Tag, error) {
	t := Tag(v)
	switch t {
	case TagEnd, TagFile, TagDir:
		return t, nil
	default:
		return 0, fmt.Errorf("%w: %w: 0x%02x", ErrProtocol, ErrUnknownTag, uint8(v))
	}
}

func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tag) UnmarshalText(b []byte) error {
	switch string(b) {
	case "end":
		*t = TagEnd
	case "file":
		*t = TagFile
	case "dir":
		*t = TagDir
	default:
		return fmt.Errorf("%w: %w: %q", ErrProtocol, ErrUnknownTag, b)
	}
	return nil
}
