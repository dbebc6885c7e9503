package vm

import "unsafe"

// Oddball is a slotless singleton distinguished only by its class: the
// program's canonical nil, true, and false objects (§3.3's tag list
// includes an oddball shape alongside array/string/instance/etc). Every
// oddball lives in the program's shared, immutable heap rather than any
// process's heap, so it is never registered with a Heap and is left
// untouched by Scavenge — a root slot holding one resolves to "not owned
// by this heap" and is skipped, exactly like any other program-heap
// pointer (§3.5).
type Oddball struct {
	header Value
	name   string // debug label only, e.g. "nil", "true", "false"
}

// newOddball allocates a singleton oddball of classID and returns its
// tagged value. It is never collected and never mutated after creation.
func newOddball(program *Program, classID uint16, name string) Value {
	o := &Oddball{name: name}
	SetHeaderFromProgram(o, program, classID)
	return HeapObjectFromRaw(unsafe.Pointer(o))
}

func (o *Oddball) Header() Value     { return o.header }
func (o *Oddball) setHeader(v Value) { o.header = v }

// String returns the oddball's debug name.
func (o *Oddball) String() string { return o.name }

// RootsDo is a no-op: an oddball carries no slots.
func (o *Oddball) RootsDo(program *Program, visitor RootVisitor) {}

// DoPointers is a no-op: an oddball carries no external memory either.
func (o *Oddball) DoPointers(program *Program, visitor PointerVisitor) {}

// Size returns just the header: oddballs carry no payload.
func (o *Oddball) Size(program *Program) int { return headerSize }

// clone is never expected to run: oddballs live in the program heap,
// which Scavenge never walks. It is implemented for interface
// completeness only.
func (o *Oddball) clone() HeapObject {
	return &Oddball{header: o.header, name: o.name}
}
