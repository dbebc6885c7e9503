package vm

// byte_content and mutable_byte_content are the two projections every
// other layer uses to get at raw bytes without caring whether they came
// from a string, a byte array, a copy-on-write wrapper, or a bounded
// slice view over either (§4.4). Copy-on-write wrappers and slice views
// are ordinary Instances of two program-registered classes rather than
// dedicated shapes, matching the object model's own preference for
// reusing Instance over inventing new headers for every collaborator.

const (
	cowSlotBacking = 0
	cowSlotOwned   = 1
	numCowSlots    = 2
)

const (
	sliceSlotBacking = 0
	sliceSlotFrom    = 1
	sliceSlotTo      = 2
	numSliceSlots    = 3
)

// CowByteArray is a typed view over an Instance of the program's
// byte-array-cow class: a backing byte array plus whether this wrapper
// currently owns an exclusive copy of it.
type CowByteArray struct{ inst *Instance }

// NewCowByteArray allocates a fresh, unowned copy-on-write wrapper
// around backing: mutation will clone backing on first access.
func NewCowByteArray(heap *Heap, program *Program, backing *ByteArray) *Instance {
	inst := NewInstance(heap, program, program.ByteArrayCowClassID, numCowSlots)
	cow := CowByteArray{inst}
	cow.SetBacking(heap, backing)
	cow.SetOwned(program, false)
	return inst
}

func (c CowByteArray) backingValue() Value { return c.inst.GetSlot(cowSlotBacking) }

// Backing resolves the wrapper's backing byte array via heap.
func (c CowByteArray) Backing(heap *Heap) *ByteArray {
	ba, _ := heap.Lookup(c.backingValue()).(*ByteArray)
	return ba
}

// SetBacking installs a new backing byte array.
func (c CowByteArray) SetBacking(heap *Heap, ba *ByteArray) {
	c.inst.SetSlot(cowSlotBacking, heap.TaggedValueOf(ba))
}

// Owned reports whether this wrapper already holds an exclusive copy.
func (c CowByteArray) Owned(program *Program) bool {
	return c.inst.GetSlot(cowSlotOwned) == program.True()
}

// SetOwned updates the ownership flag.
func (c CowByteArray) SetOwned(program *Program, owned bool) {
	c.inst.SetSlot(cowSlotOwned, program.Bool(owned))
}

// SliceView is a typed view over an Instance of the program's
// byte-array-slice or string-slice class: a backing value plus a
// [from, to) bound expressed as small integers.
type SliceView struct{ inst *Instance }

// NewSliceView allocates a slice view of classID (either the program's
// byte-array-slice or string-slice class) over backing.
func NewSliceView(heap *Heap, program *Program, classID uint16, backing Value, from, to int) *Instance {
	inst := NewInstance(heap, program, classID, numSliceSlots)
	sv := SliceView{inst}
	sv.inst.SetSlot(sliceSlotBacking, backing)
	sv.inst.SetSlot(sliceSlotFrom, SmallIntegerFrom(from))
	sv.inst.SetSlot(sliceSlotTo, SmallIntegerFrom(to))
	return inst
}

func (v SliceView) Backing() Value { return v.inst.GetSlot(sliceSlotBacking) }
func (v SliceView) From() int      { return SmallIntegerValue(v.inst.GetSlot(sliceSlotFrom)) }
func (v SliceView) To() int        { return SmallIntegerValue(v.inst.GetSlot(sliceSlotTo)) }

// validateBounds asserts that [from, to) is a legal bound over a
// backing region of length: 0 <= from <= to <= length (§4.4: "both
// bounds must be small integers satisfying 0 ≤ from ≤ to ≤
// inner_length"). A slice view that violates this was built
// incorrectly elsewhere; per §7 that is a bounds violation, asserted
// here rather than silently clamped.
func validateBounds(from, to, length int) {
	if from < 0 || from > to || to > length {
		panic("vm: slice view bounds out of range")
	}
}

// ByteContentMode selects whether a string is an acceptable source for
// byte_content, or only byte-array-backed shapes are (§4.4: a byte
// array/cow/byte-slice projection documents mode = "strings-or-bytes";
// a string_slice_class projection participates under either mode).
type ByteContentMode int

const (
	ModeStringsOrBytes ByteContentMode = iota
	ModeBytesOnly
)

// ByteContent resolves value to a read-only byte view, following
// copy-on-write wrappers and slice views to their backing data. It
// returns ok = false if value's shape has no byte content to project
// under mode (an oddball, an instance of an unrelated class, a wrapped
// foreign struct byte array, a string under ModeBytesOnly, and so on)
// (§4.4).
func ByteContent(heap *Heap, program *Program, value Value, mode ByteContentMode) (data []byte, ok bool) {
	obj := heap.Lookup(value)
	switch o := obj.(type) {
	case *String:
		if mode == ModeBytesOnly {
			return nil, false
		}
		return o.Bytes(), true
	case *ByteArray:
		return o.Bytes()
	case *Instance:
		switch classIDOf(o) {
		case program.ByteArrayCowClassID:
			backing := CowByteArray{o}.Backing(heap)
			if backing == nil {
				return nil, false
			}
			return backing.Bytes()
		case program.ByteArraySliceClassID:
			sv := SliceView{o}
			backingData, ok := ByteContent(heap, program, sv.Backing(), mode)
			if !ok {
				return nil, false
			}
			validateBounds(sv.From(), sv.To(), len(backingData))
			return backingData[sv.From():sv.To()], true
		case program.StringSliceClassID:
			// Accepts either mode: a string slice always projects its
			// backing string regardless of the caller's requested mode.
			sv := SliceView{o}
			backingData, ok := ByteContent(heap, program, sv.Backing(), ModeStringsOrBytes)
			if !ok {
				return nil, false
			}
			validateBounds(sv.From(), sv.To(), len(backingData))
			return backingData[sv.From():sv.To()], true
		}
	}
	return nil, false
}

// MutableByteContent resolves value to a writable byte view. Strings
// and external, non-raw-tagged byte arrays are always rejected. A
// copy-on-write wrapper clones its backing byte array on first mutable
// access via process's allocator; if that allocation fails, the
// AllocationError propagates to the caller and the wrapper is left
// unowned and unchanged so a retry after GC can succeed (§4.4).
func MutableByteContent(process *Process, value Value) (data []byte, ok bool, err error) {
	heap := process.Heap()
	program := process.Program()

	obj := heap.Lookup(value)
	switch o := obj.(type) {
	case *String:
		return nil, false, nil
	case *ByteArray:
		if !o.IsInternal() && !o.IsRawExternal() {
			return nil, false, nil
		}
		data, ok = o.MutableBytes()
		return data, ok, nil
	case *Instance:
		switch classIDOf(o) {
		case program.ByteArrayCowClassID:
			return mutableCowContent(process, CowByteArray{o})
		case program.ByteArraySliceClassID:
			sv := SliceView{o}
			backingData, ok, err := MutableByteContent(process, sv.Backing())
			if err != nil || !ok {
				return nil, ok, err
			}
			validateBounds(sv.From(), sv.To(), len(backingData))
			return backingData[sv.From():sv.To()], true, nil
		}
	}
	return nil, false, nil
}

func mutableCowContent(process *Process, cow CowByteArray) ([]byte, bool, error) {
	program := process.Program()
	heap := process.Heap()

	backing := cow.Backing(heap)
	if backing == nil {
		return nil, false, nil
	}
	if cow.Owned(program) {
		data, ok := backing.MutableBytes()
		return data, ok, nil
	}

	content, ok := backing.Bytes()
	if !ok {
		return nil, false, nil
	}
	fresh, err := process.AllocateByteArray(len(content))
	if err != nil {
		// Shape was eligible for mutable projection (ok = true); the
		// allocator just couldn't satisfy it right now. The caller is
		// expected to trigger a GC and retry (§4.4, §7).
		return nil, true, err
	}
	freshBytes, _ := fresh.MutableBytes()
	copy(freshBytes, content)
	cow.SetBacking(heap, fresh)
	cow.SetOwned(program, true)
	return freshBytes, true, nil
}
