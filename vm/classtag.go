package vm

import "fmt"

// ClassTag is the 4-bit shape discriminant stored in every heap object's
// header. It selects the object's layout and how the collector walks it;
// it is distinct from ClassID, which selects the object's user-visible
// class identity.
type ClassTag uint8

// The known class tags. Values are part of the header encoding and the
// snapshot format; once assigned they must not change.
const (
	TagArray ClassTag = iota
	TagString
	TagInstance
	TagOddball
	TagDouble
	TagByteArray
	TagLargeInteger
	TagStack
	TagTask
)

const classTagBits = 4
const classTagMax = (1 << classTagBits) - 1

// classIDBits is the width of the class-id field packed alongside the
// class tag in a header word.
const classIDBits = 10
const classIDMax = (1 << classIDBits) - 1

func (t ClassTag) String() string {
	switch t {
	case TagArray:
		return "array"
	case TagString:
		return "string"
	case TagInstance:
		return "instance"
	case TagOddball:
		return "oddball"
	case TagDouble:
		return "double"
	case TagByteArray:
		return "byte-array"
	case TagLargeInteger:
		return "large-integer"
	case TagStack:
		return "stack"
	case TagTask:
		return "task"
	default:
		return fmt.Sprintf("ClassTag(%d)", uint8(t))
	}
}

// IsKnown reports whether t is one of the shapes enumerated above. A
// header that decodes to an unknown tag is a fatal configuration error,
// never a recoverable one (§7 of the object model design).
func (t ClassTag) IsKnown() bool {
	return t <= TagTask
}
