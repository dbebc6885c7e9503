package vm

import (
	"errors"
	"unicode/utf8"
	"unsafe"
)

// noHashCode is the sentinel meaning "hash not yet computed" (§3.3); it
// is distinct from the all-zero hash a string can legitimately have, so
// the lazily-computed hash is stored as -1 until first requested and the
// public API never hands back the sentinel itself.
const noHashCode = -1

// String is the variable-shape UTF-8 primitive, mirroring ByteArray's
// internal/external split (§3.3): internal strings carry their bytes
// in-heap, external strings hold a pointer to out-of-heap memory. The
// hash is computed lazily and cached once known.
type String struct {
	header Value
	length int // >= 0: internal length. < 0: external, actual length = -1-length.
	hash   int32

	bytes []byte // internal storage, valid UTF-8, no NUL required; nil when external

	externalPtr unsafe.Pointer
}

// NewInternalString validates content as UTF-8, wraps it as an internal
// string, and registers it with heap. Returns an error if content is
// not valid UTF-8 (§4.3: "UTF-8 validity checked at creation").
func NewInternalString(heap *Heap, program *Program, classID uint16, content []byte) (*String, error) {
	if !utf8.Valid(content) {
		return nil, errInvalidUTF8
	}
	s := &String{length: len(content), bytes: content, hash: noHashCode}
	SetHeaderFromProgram(s, program, classID)
	heap.register(s)
	return s, nil
}

// NewExternalString wraps a caller-owned, out-of-heap, valid-UTF-8
// buffer as an external string.
func NewExternalString(heap *Heap, program *Program, classID uint16, ptr unsafe.Pointer, length int) *String {
	s := &String{length: -1 - length, externalPtr: ptr, hash: noHashCode}
	SetHeaderFromProgram(s, program, classID)
	heap.register(s)
	return s
}

func (s *String) Header() Value     { return s.header }
func (s *String) setHeader(v Value) { s.header = v }

// IsInternal reports whether s stores its bytes in-heap.
func (s *String) IsInternal() bool { return s.length >= 0 }

// Length returns s's byte length (UTF-8 encoded, not rune count).
func (s *String) Length() int {
	if s.IsInternal() {
		return s.length
	}
	return -1 - s.length
}

// Bytes returns a read-only view of s's UTF-8 content.
func (s *String) Bytes() []byte {
	if s.IsInternal() {
		return s.bytes
	}
	if s.externalPtr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(s.externalPtr), s.Length())
}

// String implements fmt.Stringer.
func (s *String) String() string { return string(s.Bytes()) }

// Hash returns s's hash code, computing and caching it on first use.
// The computation is FNV-ish: hash = 31*hash + byte, starting from
// length, over the signed byte values, with the reserved "no hash yet"
// sentinel folded to 0 so it never escapes (§3.3).
func (s *String) Hash() int32 {
	if s.hash != noHashCode {
		return s.hash
	}
	h := int32(s.Length())
	for _, b := range s.Bytes() {
		h = 31*h + int32(int8(b))
	}
	if h == noHashCode {
		h = 0
	}
	s.hash = h
	return h
}

// Equals compares s and other for content equality, checking the
// (possibly newly computed) hash first to make the common inequality
// case cheap before falling back to a byte-for-byte compare (§4.3).
func (s *String) Equals(other *String) bool {
	if s == other {
		return true
	}
	if s.Length() != other.Length() {
		return false
	}
	if s.Hash() != other.Hash() {
		return false
	}
	return string(s.Bytes()) == string(other.Bytes())
}

// StartsWithVowel reports whether s, after skipping any leading
// underscores, begins with an ASCII vowel (§4.3).
func (s *String) StartsWithVowel() bool {
	b := s.Bytes()
	i := 0
	for i < len(b) && b[i] == '_' {
		i++
	}
	if i >= len(b) {
		return false
	}
	switch b[i] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	default:
		return false
	}
}

// RootsDo is a no-op: a string carries no tagged value slots.
func (s *String) RootsDo(program *Program, visitor RootVisitor) {}

// DoPointers additionally reports the external backing buffer, if any.
func (s *String) DoPointers(program *Program, visitor PointerVisitor) {
	if !s.IsInternal() && s.externalPtr != nil {
		visitor.VisitExternalPointer(s.externalPtr, s.Length())
	}
}

// Size returns the byte footprint: internal strings pay for their
// content plus a trailing NUL for C-string interop and padding to a
// word boundary; external strings pay only for the length sentinel and
// pointer (§3.3, §4.3).
func (s *String) Size(program *Program) int {
	if s.IsInternal() {
		contentAndNUL := len(s.bytes) + 1
		padded := (contentAndNUL + wordSize - 1) / wordSize * wordSize
		return headerSize + wordSize + padded
	}
	return headerSize + wordSize*2
}

func (s *String) clone() HeapObject {
	c := &String{header: s.header, length: s.length, hash: s.hash, externalPtr: s.externalPtr}
	if s.bytes != nil {
		c.bytes = append([]byte(nil), s.bytes...)
	}
	return c
}

var errInvalidUTF8 = errors.New("vm: invalid UTF-8 content")
