package vm

// The header word of every heap object packs a 4-bit class tag and a
// 10-bit class id into a small integer:
//
//	bits [0,4)   class tag  (shape kind, see ClassTag)
//	bits [4,14)  class id   (index into the program's class table)
//
// During a scavenge the header slot may temporarily hold a marked
// (forwarding) pointer instead of a small integer; that is the only
// legal non-small-integer header value, and it must be restored — by
// becoming the new object's plain header — before the collector exits.

// packHeader packs a class id and tag into the small-integer encoding
// stored in an object's header slot. It panics on overflow of either
// field: a header that cannot be packed is a fatal configuration error,
// not a recoverable one.
func packHeader(classID uint16, tag ClassTag) Value {
	if tag > classTagMax {
		panic("vm: class tag exceeds 4 bits")
	}
	if int(classID) > classIDMax {
		panic("vm: class id exceeds 10 bits")
	}
	return SmallIntegerFrom(int(classID)<<classTagBits | int(tag))
}

// unpackHeader is the inverse of packHeader. Precondition: h is a small
// integer (i.e. not a forwarding pointer).
func unpackHeader(h Value) (classID uint16, tag ClassTag) {
	n := SmallIntegerValue(h)
	tag = ClassTag(n & classTagMax)
	classID = uint16(n >> classTagBits)
	return
}

// HeapObject is implemented by every concrete shape (Array, ByteArray,
// String, LargeInteger, Double, Instance, Task, Stack). It is the
// contract the collector and snapshotter dispatch against.
type HeapObject interface {
	// Header returns the raw header word: normally a packed small
	// integer, transiently a marked forwarding pointer during scavenge.
	Header() Value

	// setHeader installs a new raw header word. Only the allocator (on
	// creation) and the scavenger (to install/clear a forwarding
	// pointer) call this directly.
	setHeader(v Value)

	// RootsDo invokes visitor for every value-holding slot the object
	// carries, so the collector can trace and, if needed, rewrite
	// pointers in place.
	RootsDo(program *Program, visitor RootVisitor)

	// DoPointers behaves like RootsDo but additionally reports raw
	// out-of-heap addresses (external byte array / string backings) to
	// the snapshotter.
	DoPointers(program *Program, visitor PointerVisitor)

	// Size returns the object's byte footprint, matching the
	// allocator's record of its block occupancy exactly.
	Size(program *Program) int

	// clone produces a shallow, independent copy of the object with its
	// own backing storage, used by the scavenger to evacuate a
	// surviving object into a fresh block.
	clone() HeapObject
}

// classTagOf decodes the class tag from o's header. It panics if the
// header is not currently a small integer (i.e. a scavenge is mid-flight
// and forwarding has not been resolved) or if the tag is unknown —
// both are fatal configuration errors per the error handling design.
func classTagOf(o HeapObject) ClassTag {
	h := o.Header()
	if !IsSmallInteger(h) {
		panic("vm: header read while object is forwarded")
	}
	_, tag := unpackHeader(h)
	if !tag.IsKnown() {
		panic("vm: unknown class tag in header")
	}
	return tag
}

// classIDOf decodes the class id from o's header.
func classIDOf(o HeapObject) uint16 {
	h := o.Header()
	if !IsSmallInteger(h) {
		panic("vm: header read while object is forwarded")
	}
	classID, _ := unpackHeader(h)
	return classID
}

// ClassTagOf returns o's shape discriminant.
func ClassTagOf(o HeapObject) ClassTag { return classTagOf(o) }

// ClassIDOf returns o's program class-table index.
func ClassIDOf(o HeapObject) uint16 { return classIDOf(o) }

// SetHeader installs a fresh header on o, freshly allocated or being
// re-typed by a class-change operation.
func SetHeader(o HeapObject, classID uint16, tag ClassTag) {
	o.setHeader(packHeader(classID, tag))
}

// SetHeaderFromProgram installs a header on o, looking the class tag up
// via the program's class table rather than requiring the caller to
// know it.
func SetHeaderFromProgram(o HeapObject, program *Program, classID uint16) {
	SetHeader(o, classID, program.ClassTagFor(classID))
}

// forwardingTarget reports whether o's header currently holds a
// forwarding pointer, and if so, the object it points to.
func forwardingTarget(o HeapObject) (Value, bool) {
	h := o.Header()
	if IsMarked(h) {
		return Unmark(h), true
	}
	return 0, false
}
