package vm

// Instance is the general-purpose heap shape: a header followed by N
// tagged slots, where N comes from the program's class table
// (§4.3 "Instance"). Like the teacher's Object layout this uses four
// inline slots for the common case of a small, fixed-size instance and
// falls back to an overflow slice only when needed, avoiding a slice
// allocation for the vast majority of instances.
type Instance struct {
	header Value

	slot0, slot1, slot2, slot3 Value
	overflow                   []Value
}

// NumInlineSlots is the number of slots stored directly in Instance.
const NumInlineSlots = 4

// NewInstance allocates an Instance with numSlots slots (never fewer than
// NumInlineSlots, since the inline slots always exist), all Nil, and
// registers it with heap. classID identifies the instance's class in
// the program's class table.
func NewInstance(heap *Heap, program *Program, classID uint16, numSlots int) *Instance {
	inst := &Instance{}
	nilValue := program.Nil()
	inst.slot0, inst.slot1, inst.slot2, inst.slot3 = nilValue, nilValue, nilValue, nilValue
	if numSlots > NumInlineSlots {
		inst.overflow = make([]Value, numSlots-NumInlineSlots)
		for i := range inst.overflow {
			inst.overflow[i] = nilValue
		}
	}
	SetHeaderFromProgram(inst, program, classID)
	heap.register(inst)
	return inst
}

// Header implements HeapObject.
func (o *Instance) Header() Value { return o.header }

func (o *Instance) setHeader(v Value) { o.header = v }

// LengthFromSize returns the number of tagged slots an instance of the
// given total byte size carries: (size - header) / word, per §4.3.
func LengthFromSize(size int) int {
	return (size - headerSize) / wordSize
}

// NumSlots returns the total slot count (inline + overflow).
func (o *Instance) NumSlots() int {
	return NumInlineSlots + len(o.overflow)
}

// GetSlot returns the value at index. Precondition: 0 <= index < NumSlots().
func (o *Instance) GetSlot(index int) Value {
	switch index {
	case 0:
		return o.slot0
	case 1:
		return o.slot1
	case 2:
		return o.slot2
	case 3:
		return o.slot3
	default:
		return o.overflow[index-NumInlineSlots]
	}
}

// SetSlot stores value at index. Precondition: 0 <= index < NumSlots().
func (o *Instance) SetSlot(index int, value Value) {
	switch index {
	case 0:
		o.slot0 = value
	case 1:
		o.slot1 = value
	case 2:
		o.slot2 = value
	case 3:
		o.slot3 = value
	default:
		o.overflow[index-NumInlineSlots] = value
	}
}

// forEachSlotPtr calls fn with the address of every slot, inline then
// overflow, so callers can both read and rewrite in place.
func (o *Instance) forEachSlotPtr(fn func(*Value)) {
	fn(&o.slot0)
	fn(&o.slot1)
	fn(&o.slot2)
	fn(&o.slot3)
	for i := range o.overflow {
		fn(&o.overflow[i])
	}
}

// RootsDo visits every slot: an instance's root walk is exhaustive,
// per §4.3 "Root walk visits every slot."
func (o *Instance) RootsDo(program *Program, visitor RootVisitor) {
	o.forEachSlotPtr(visitor.VisitSlot)
}

// DoPointers is identical to RootsDo: plain instances carry no
// out-of-heap memory.
func (o *Instance) DoPointers(program *Program, visitor PointerVisitor) {
	o.RootsDo(program, visitor)
}

// Size returns the instance's byte footprint: header plus one word per
// slot, matching the program's declared instance size for its class.
func (o *Instance) Size(program *Program) int {
	n := program.InstanceSizeFor(classIDOf(o))
	if n == 0 {
		n = o.NumSlots()
	}
	return headerSize + n*wordSize
}

func (o *Instance) clone() HeapObject {
	c := &Instance{header: o.header, slot0: o.slot0, slot1: o.slot1, slot2: o.slot2, slot3: o.slot3}
	if o.overflow != nil {
		c.overflow = append([]Value(nil), o.overflow...)
	}
	return c
}

// ClassName returns the name of o's class, or "?" if the program does
// not know it (useful for debugging and panic messages).
func (o *Instance) ClassName(program *Program) string {
	c := program.Classes.ByID(classIDOf(o))
	if c == nil {
		return "?"
	}
	return c.Name
}
