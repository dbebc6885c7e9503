package vm

// Task is a specialization of the general instance shape: a fixed set
// of named slots (stack, id, result) plus whatever additional instance
// variables the program's Task class declares, distinguished from a
// plain Instance only by its class tag (§3.3, §4.3).
type Task struct {
	header Value

	stack  Value // heap pointer to a *Stack, or small integer 0 if detached
	id     Value
	result Value

	overflow []Value
}

const (
	taskSlotStack = iota
	taskSlotID
	taskSlotResult
	numTaskFixedSlots
)

// NewTask allocates a task with numSlots total slots (at least
// numTaskFixedSlots), all Nil, and registers it with heap.
func NewTask(heap *Heap, program *Program, classID uint16, numSlots int) *Task {
	if numSlots < numTaskFixedSlots {
		numSlots = numTaskFixedSlots
	}
	t := &Task{}
	nilValue := program.Nil()
	t.stack, t.id, t.result = SmallIntegerFrom(0), nilValue, nilValue
	if extra := numSlots - numTaskFixedSlots; extra > 0 {
		t.overflow = make([]Value, extra)
		for i := range t.overflow {
			t.overflow[i] = nilValue
		}
	}
	SetHeaderFromProgram(t, program, classID)
	heap.register(t)
	return t
}

func (t *Task) Header() Value     { return t.header }
func (t *Task) setHeader(v Value) { t.header = v }

// NumSlots returns the total slot count (fixed + overflow).
func (t *Task) NumSlots() int { return numTaskFixedSlots + len(t.overflow) }

// GetSlot returns the value at index. Precondition: 0 <= index < NumSlots().
func (t *Task) GetSlot(index int) Value {
	switch index {
	case taskSlotStack:
		return t.stack
	case taskSlotID:
		return t.id
	case taskSlotResult:
		return t.result
	default:
		return t.overflow[index-numTaskFixedSlots]
	}
}

// SetSlot stores value at index. Precondition: 0 <= index < NumSlots().
func (t *Task) SetSlot(index int, value Value) {
	switch index {
	case taskSlotStack:
		t.stack = value
	case taskSlotID:
		t.id = value
	case taskSlotResult:
		t.result = value
	default:
		t.overflow[index-numTaskFixedSlots] = value
	}
}

// ID returns the task's identity slot.
func (t *Task) ID() Value { return t.id }

// SetID sets the task's identity slot.
func (t *Task) SetID(v Value) { t.id = v }

// Result returns the task's result slot.
func (t *Task) Result() Value { return t.result }

// SetResult sets the task's result slot.
func (t *Task) SetResult(v Value) { t.result = v }

// HasStack reports whether the task's stack slot currently holds a
// heap pointer of class tag "stack" (§4.3: "true iff that slot
// currently holds a stack object").
func (t *Task) HasStack(heap *Heap) bool {
	_, ok := heap.Lookup(t.stack).(*Stack)
	return ok
}

// Stack resolves the task's stack slot to a *Stack via heap, or nil if
// the task has no stack attached.
func (t *Task) Stack(heap *Heap) *Stack {
	s, _ := heap.Lookup(t.stack).(*Stack)
	return s
}

// AttachStack installs stack as the task's stack.
func (t *Task) AttachStack(heap *Heap, stack *Stack) {
	t.stack = heap.TaggedValueOf(stack)
}

// DetachStack replaces the task's stack slot with small integer zero
// and returns the stack it held, or nil if it had none, so the
// collector does not chase a dead frame once the task is terminated
// (§3.5, §4.3 "detach_stack").
func (t *Task) DetachStack(heap *Heap) *Stack {
	s := t.Stack(heap)
	t.stack = SmallIntegerFrom(0)
	return s
}

// RootsDo visits every slot, fixed then overflow.
func (t *Task) RootsDo(program *Program, visitor RootVisitor) {
	visitor.VisitSlot(&t.stack)
	visitor.VisitSlot(&t.id)
	visitor.VisitSlot(&t.result)
	for i := range t.overflow {
		visitor.VisitSlot(&t.overflow[i])
	}
}

// DoPointers is identical to RootsDo: tasks carry no out-of-heap memory
// directly (their stack, if any, is a separate heap object walked on
// its own).
func (t *Task) DoPointers(program *Program, visitor PointerVisitor) {
	t.RootsDo(program, visitor)
}

// Size returns the instance's byte footprint, matching the program's
// declared instance size for its class, as Instance.Size does.
func (t *Task) Size(program *Program) int {
	n := program.InstanceSizeFor(classIDOf(t))
	if n == 0 {
		n = t.NumSlots()
	}
	return headerSize + n*wordSize
}

func (t *Task) clone() HeapObject {
	c := &Task{header: t.header, stack: t.stack, id: t.id, result: t.result}
	if t.overflow != nil {
		c.overflow = append([]Value(nil), t.overflow...)
	}
	return c
}
