package vm

import "unsafe"

// ByteArray is the variable-shape byte-content primitive. Its length
// field doubles as the internal/external discriminator (§3.3, invariant
// 3): non-negative means `length` contiguous bytes follow the header;
// negative means the sentinel -1-L encodes an external length L, and
// the object instead carries a pointer to out-of-heap memory plus a tag
// distinguishing raw bytes from a wrapped foreign struct.
type ByteArray struct {
	header Value
	length int // >= 0: internal length. < 0: external, actual length = -1-length.

	bytes []byte // internal storage; nil when external

	externalPtr unsafe.Pointer
	externalRaw bool // true: raw bytes, exposes byte content. false: wrapped foreign struct, opaque.
}

// NewInternalByteArray wraps content as an internal byte array and
// registers it with heap. content's backing array becomes the object's
// storage; callers must not alias it afterwards.
func NewInternalByteArray(heap *Heap, program *Program, classID uint16, content []byte) *ByteArray {
	ba := &ByteArray{length: len(content), bytes: content}
	SetHeaderFromProgram(ba, program, classID)
	heap.register(ba)
	return ba
}

// NewExternalByteArray wraps a caller-owned, out-of-heap buffer. raw
// selects whether the buffer exposes byte content (true) or is an
// opaque wrapped foreign struct (false); only raw buffers participate
// in byte_content/mutable_byte_content.
func NewExternalByteArray(heap *Heap, program *Program, classID uint16, ptr unsafe.Pointer, length int, raw bool) *ByteArray {
	ba := &ByteArray{length: -1 - length, externalPtr: ptr, externalRaw: raw}
	SetHeaderFromProgram(ba, program, classID)
	heap.register(ba)
	return ba
}

func (ba *ByteArray) Header() Value     { return ba.header }
func (ba *ByteArray) setHeader(v Value) { ba.header = v }

// IsInternal reports whether ba stores its bytes in-heap.
func (ba *ByteArray) IsInternal() bool { return ba.length >= 0 }

// IsRawExternal reports whether ba is external with the raw-bytes tag
// (as opposed to a wrapped, opaque foreign struct).
func (ba *ByteArray) IsRawExternal() bool { return !ba.IsInternal() && ba.externalRaw }

// Length returns the byte array's logical length regardless of
// representation.
func (ba *ByteArray) Length() int {
	if ba.IsInternal() {
		return ba.length
	}
	return -1 - ba.length
}

// Bytes returns a read-only view of ba's content and true, or
// (nil, false) if ba is a wrapped foreign struct with no byte content
// to project.
func (ba *ByteArray) Bytes() ([]byte, bool) {
	if ba.IsInternal() {
		return ba.bytes, true
	}
	if !ba.externalRaw || ba.externalPtr == nil {
		return nil, false
	}
	return unsafe.Slice((*byte)(ba.externalPtr), ba.Length()), true
}

// MutableBytes returns a writable view of ba's content. Like Bytes, it
// fails for wrapped foreign structs; unlike Bytes, external raw buffers
// are also writable in place (they are not copy-on-write at this
// layer — cow semantics live one level up, see CowByteArray).
func (ba *ByteArray) MutableBytes() ([]byte, bool) {
	return ba.Bytes()
}

// Resize shrinks an internal byte array in place. It is only legal when
// ba is internal, sits at the top of its block, and newLength does not
// exceed the current length (§4.3); any other call is a programming
// error and panics.
func (ba *ByteArray) Resize(heap *Heap, newLength int) {
	if !ba.IsInternal() {
		panic("vm: resize requires an internal byte array")
	}
	if newLength < 0 || newLength > len(ba.bytes) {
		panic("vm: resize can only shrink")
	}
	if !heap.IsAtBlockTop(ba) {
		panic("vm: resize requires the byte array be at the top of its block")
	}
	heap.shrinkTop(len(ba.bytes) - newLength)
	ba.bytes = ba.bytes[:newLength]
	ba.length = newLength
}

// Neuter detaches the external buffer from a raw-tagged external byte
// array, returning it to the caller and zeroing ba's length. It informs
// process's external-allocation bookkeeping. Precondition: ba is a
// raw-tagged external byte array.
func (ba *ByteArray) Neuter(process *Process) unsafe.Pointer {
	if !ba.IsRawExternal() {
		panic("vm: neuter requires a raw-tagged external byte array")
	}
	ptr := ba.externalPtr
	process.UnregisterExternalAllocation(ba.Length())
	ba.externalPtr = nil
	ba.length = -1
	return ptr
}

// RootsDo is a no-op: a byte array carries no tagged value slots.
func (ba *ByteArray) RootsDo(program *Program, visitor RootVisitor) {}

// DoPointers additionally reports the external backing buffer, if any,
// to the snapshotter.
func (ba *ByteArray) DoPointers(program *Program, visitor PointerVisitor) {
	if !ba.IsInternal() && ba.externalPtr != nil {
		visitor.VisitExternalPointer(ba.externalPtr, ba.Length())
	}
}

// Size returns the byte footprint: internal arrays pay for their
// content; external arrays pay only for the length sentinel, pointer,
// and tag word (§3.3, §4.3).
func (ba *ByteArray) Size(program *Program) int {
	if ba.IsInternal() {
		return headerSize + wordSize + len(ba.bytes)
	}
	return headerSize + wordSize*3
}

func (ba *ByteArray) clone() HeapObject {
	c := &ByteArray{header: ba.header, length: ba.length, externalPtr: ba.externalPtr, externalRaw: ba.externalRaw}
	if ba.bytes != nil {
		c.bytes = append([]byte(nil), ba.bytes...)
	}
	return c
}

// InternalByteArraySnapshotCutoff is the length above which the
// snapshot writer serializes a byte array as external rather than
// internal (§4.3): roughly one quarter of the allocator's page
// (blockBudget).
const InternalByteArraySnapshotCutoff = blockBudget / 4
