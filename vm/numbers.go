package vm

import "math"

// LargeInteger holds a 64-bit signed payload that does not fit in a
// small integer's (wordBits-1)-bit range (§3.3).
type LargeInteger struct {
	header Value
	value  int64
}

// NewLargeInteger allocates a large integer and registers it with heap.
func NewLargeInteger(heap *Heap, program *Program, classID uint16, value int64) *LargeInteger {
	li := &LargeInteger{value: value}
	SetHeaderFromProgram(li, program, classID)
	heap.register(li)
	return li
}

func (li *LargeInteger) Header() Value     { return li.header }
func (li *LargeInteger) setHeader(v Value) { li.header = v }

// Value returns the wrapped 64-bit signed payload.
func (li *LargeInteger) Value() int64 { return li.value }

// RootsDo is a no-op: a large integer carries no tagged value slots.
func (li *LargeInteger) RootsDo(program *Program, visitor RootVisitor) {}

// DoPointers is a no-op: a large integer carries no external memory.
func (li *LargeInteger) DoPointers(program *Program, visitor PointerVisitor) {}

// Size returns header plus one 64-bit word, regardless of host word
// width: the payload is always the full 64 bits (§4.3).
func (li *LargeInteger) Size(program *Program) int { return headerSize + 8 }

func (li *LargeInteger) clone() HeapObject {
	return &LargeInteger{header: li.header, value: li.value}
}

// Double holds a 64-bit IEEE-754 binary64 payload (§3.3).
type Double struct {
	header Value
	bits   uint64
}

// NewDouble allocates a double-precision float and registers it with heap.
func NewDouble(heap *Heap, program *Program, classID uint16, value float64) *Double {
	d := &Double{bits: math.Float64bits(value)}
	SetHeaderFromProgram(d, program, classID)
	heap.register(d)
	return d
}

func (d *Double) Header() Value     { return d.header }
func (d *Double) setHeader(v Value) { d.header = v }

// Value returns the wrapped float64.
func (d *Double) Value() float64 { return math.Float64frombits(d.bits) }

// Bits returns the raw IEEE-754 bit pattern, as stored in a snapshot.
func (d *Double) Bits() uint64 { return d.bits }

// RootsDo is a no-op: a double carries no tagged value slots.
func (d *Double) RootsDo(program *Program, visitor RootVisitor) {}

// DoPointers is a no-op: a double carries no external memory.
func (d *Double) DoPointers(program *Program, visitor PointerVisitor) {}

// Size returns header plus one 64-bit word, per §4.3.
func (d *Double) Size(program *Program) int { return headerSize + 8 }

func (d *Double) clone() HeapObject {
	return &Double{header: d.header, bits: d.bits}
}
