package vm

import (
	"fmt"
	"unsafe"

	"github.com/fxamacker/cbor/v2"
)

// snapshotValue is the wire encoding of one tagged Value: exactly one
// of its fields is set, chosen by what the Value actually is (§4.6).
type snapshotValue struct {
	SmallInt *int64 `cbor:"i,omitempty"`
	Ref      *int   `cbor:"r,omitempty"`
	RawBCI   *int   `cbor:"b,omitempty"`
	Oddball  string `cbor:"o,omitempty"`
}

// snapshotNode is the wire encoding of one heap object. Only the fields
// relevant to its Tag are populated; the rest travel as zero values,
// which CBOR's omitempty drops from the wire.
type snapshotNode struct {
	Tag     ClassTag `cbor:"tag"`
	ClassID uint16   `cbor:"class"`

	Elements []snapshotValue `cbor:"elements,omitempty"`

	Bytes    []byte `cbor:"bytes,omitempty"`
	External bool   `cbor:"external,omitempty"`
	Hash     int32  `cbor:"hash,omitempty"`

	IntValue int64 `cbor:"int,omitempty"`

	DoubleBits uint64 `cbor:"double,omitempty"`

	Slots []snapshotValue `cbor:"slots,omitempty"`

	Task        snapshotValue `cbor:"task,omitempty"`
	StackLength int           `cbor:"stacklen,omitempty"`
	Top         int           `cbor:"top,omitempty"`
	TryTop      int           `cbor:"trytop,omitempty"`
	InOverflow  bool          `cbor:"overflow,omitempty"`
}

// Snapshot is the persisted image of a reachable object graph: a set of
// root values plus every object they transitively reach, each recorded
// exactly once (§4.6).
type Snapshot struct {
	Roots []snapshotValue `cbor:"roots"`
	Nodes []snapshotNode  `cbor:"nodes"`
}

type snapshotWriter struct {
	program *Program
	heap    *Heap
	index   map[uintptr]int
	queue   []HeapObject
}

// WriteSnapshot serializes every object reachable from roots into a
// canonical CBOR image. Reachability is computed the same way Scavenge
// computes it, but nothing in heap is mutated or relocated.
func WriteSnapshot(heap *Heap, program *Program, roots []Value) ([]byte, error) {
	w := &snapshotWriter{program: program, heap: heap, index: make(map[uintptr]int)}

	snap := Snapshot{}
	for _, r := range roots {
		snap.Roots = append(snap.Roots, w.encodeValue(r))
	}
	for len(w.queue) > 0 {
		obj := w.queue[0]
		w.queue = w.queue[1:]
		snap.Nodes = append(snap.Nodes, w.encodeNode(obj))
	}

	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(snap)
}

// intern assigns obj a stable node index, enqueuing it for encoding the
// first time it is seen. Indices are handed out in discovery order,
// which matches the order nodes are appended to Snapshot.Nodes since
// the queue is processed strictly FIFO.
func (w *snapshotWriter) intern(obj HeapObject) int {
	addr := uintptr(addressOf(obj))
	if idx, ok := w.index[addr]; ok {
		return idx
	}
	idx := len(w.index)
	w.index[addr] = idx
	w.queue = append(w.queue, obj)
	return idx
}

func (w *snapshotWriter) encodeValue(v Value) snapshotValue {
	if IsSmallInteger(v) {
		n := int64(SmallIntegerValue(v))
		return snapshotValue{SmallInt: &n}
	}
	switch v {
	case w.program.Nil():
		return snapshotValue{Oddball: "nil"}
	case w.program.True():
		return snapshotValue{Oddball: "true"}
	case w.program.False():
		return snapshotValue{Oddball: "false"}
	}
	obj := w.heap.Lookup(v)
	if obj == nil {
		panic("vm: snapshot cannot serialize a pointer outside the process heap")
	}
	idx := w.intern(obj)
	return snapshotValue{Ref: &idx}
}

// encodeStackSlot is like encodeValue but additionally recognizes the
// raw, untagged bytecode addresses a stack keeps interleaved with
// tagged values (§4.3 "roots_do skips the bytecode range"): the frame
// marker is recorded as a distinguished oddball, and any other in-range
// address is recorded as a portable offset rather than an absolute
// pointer, since the loading program's bytecode buffer will live at a
// different address than the one that wrote the snapshot.
func (w *snapshotWriter) encodeStackSlot(raw Value) snapshotValue {
	addr := uintptr(raw)
	if addr == w.program.FrameMarker() {
		return snapshotValue{Oddball: "frame_marker"}
	}
	if w.program.InBytecodeRange(addr) {
		bci := w.program.AbsoluteBCIFromBCP(addr)
		return snapshotValue{RawBCI: &bci}
	}
	return w.encodeValue(raw)
}

func (w *snapshotWriter) encodeNode(obj HeapObject) snapshotNode {
	node := snapshotNode{Tag: classTagOf(obj), ClassID: classIDOf(obj)}
	switch o := obj.(type) {
	case *Array:
		for i := 0; i < o.Length(); i++ {
			node.Elements = append(node.Elements, w.encodeValue(o.At(i)))
		}
	case *ByteArray:
		b, _ := o.Bytes()
		node.Bytes = append([]byte(nil), b...)
		node.External = len(b) > InternalByteArraySnapshotCutoff
	case *String:
		node.Bytes = append([]byte(nil), o.Bytes()...)
		node.Hash = o.Hash()
	case *LargeInteger:
		node.IntValue = o.Value()
	case *Double:
		node.DoubleBits = o.Bits()
	case *Instance:
		for i := 0; i < o.NumSlots(); i++ {
			node.Slots = append(node.Slots, w.encodeValue(o.GetSlot(i)))
		}
	case *Task:
		for i := 0; i < o.NumSlots(); i++ {
			node.Slots = append(node.Slots, w.encodeValue(o.GetSlot(i)))
		}
	case *Stack:
		if o.IsTransferred() {
			panic("vm: cannot snapshot a stack transferred to the interpreter")
		}
		node.Task = w.encodeValue(o.Task())
		node.StackLength = o.Length()
		node.Top = o.Top()
		node.TryTop = o.TryTop()
		node.InOverflow = o.InOverflow()
		for i := o.Top(); i < o.Length(); i++ {
			node.Elements = append(node.Elements, w.encodeStackSlot(o.At(i)))
		}
	default:
		panic(fmt.Sprintf("vm: snapshot cannot encode shape %T", obj))
	}
	return node
}

// ReadSnapshot reconstructs the object graph data encodes into
// process's heap, returning the tagged root values in the same order
// WriteSnapshot was given them. Objects are allocated in two passes so
// that cycles and forward references resolve correctly: first every
// node gets an empty object of the right shape and size, then a second
// pass fills in content and pointer fields once every node has a live
// target to point at.
func ReadSnapshot(data []byte, process *Process) ([]Value, error) {
	decMode, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := decMode.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	heap := process.Heap()
	program := process.Program()

	objs := make([]HeapObject, len(snap.Nodes))
	for i, n := range snap.Nodes {
		objs[i] = allocateSnapshotSkeleton(heap, program, process, n)
	}
	for i, n := range snap.Nodes {
		fillSnapshotSkeleton(heap, program, objs[i], n, objs)
	}

	roots := make([]Value, len(snap.Roots))
	for i, rv := range snap.Roots {
		roots[i] = decodeSnapshotValue(heap, program, rv, objs)
	}
	return roots, nil
}

func allocateSnapshotSkeleton(heap *Heap, program *Program, process *Process, n snapshotNode) HeapObject {
	switch n.Tag {
	case TagArray:
		return NewArray(heap, program, n.ClassID, len(n.Elements))
	case TagByteArray:
		if n.External {
			buf := make([]byte, len(n.Bytes))
			copy(buf, n.Bytes)
			var ptr unsafe.Pointer
			if len(buf) > 0 {
				ptr = unsafe.Pointer(&buf[0])
			}
			ba := NewExternalByteArray(heap, program, n.ClassID, ptr, len(buf), true)
			process.RegisterExternalAllocation(len(buf))
			return ba
		}
		return NewInternalByteArray(heap, program, n.ClassID, append([]byte(nil), n.Bytes...))
	case TagString:
		s, err := NewInternalString(heap, program, n.ClassID, append([]byte(nil), n.Bytes...))
		if err != nil {
			panic(err)
		}
		return s
	case TagLargeInteger:
		return NewLargeInteger(heap, program, n.ClassID, n.IntValue)
	case TagDouble:
		d := &Double{bits: n.DoubleBits}
		SetHeaderFromProgram(d, program, n.ClassID)
		heap.register(d)
		return d
	case TagInstance:
		return NewInstance(heap, program, n.ClassID, len(n.Slots))
	case TagTask:
		return NewTask(heap, program, n.ClassID, len(n.Slots))
	case TagStack:
		return NewStack(heap, program, n.ClassID, n.StackLength)
	default:
		panic(fmt.Sprintf("vm: snapshot cannot decode class tag %v", n.Tag))
	}
}

func fillSnapshotSkeleton(heap *Heap, program *Program, obj HeapObject, n snapshotNode, objs []HeapObject) {
	switch o := obj.(type) {
	case *Array:
		for i, ev := range n.Elements {
			o.AtPut(i, decodeSnapshotValue(heap, program, ev, objs))
		}
	case *Instance:
		for i, sv := range n.Slots {
			o.SetSlot(i, decodeSnapshotValue(heap, program, sv, objs))
		}
	case *Task:
		for i, sv := range n.Slots {
			o.SetSlot(i, decodeSnapshotValue(heap, program, sv, objs))
		}
	case *Stack:
		o.SetTask(decodeSnapshotValue(heap, program, n.Task, objs))
		o.SetTop(n.Top)
		o.SetTryTop(n.TryTop)
		o.SetInOverflow(n.InOverflow)
		for i, ev := range n.Elements {
			o.AtPut(n.Top+i, decodeSnapshotValue(heap, program, ev, objs))
		}
	case *ByteArray, *String, *LargeInteger, *Double:
		// Fully populated at allocation time; nothing left to fill.
	}
}

func decodeSnapshotValue(heap *Heap, program *Program, v snapshotValue, objs []HeapObject) Value {
	switch {
	case v.SmallInt != nil:
		return SmallIntegerFrom(int(*v.SmallInt))
	case v.Ref != nil:
		return heap.TaggedValueOf(objs[*v.Ref])
	case v.RawBCI != nil:
		base, _ := program.Bytecodes()
		return Value(base + uintptr(*v.RawBCI))
	case v.Oddball == "nil":
		return program.Nil()
	case v.Oddball == "true":
		return program.True()
	case v.Oddball == "false":
		return program.False()
	case v.Oddball == "frame_marker":
		return Value(program.FrameMarker())
	default:
		panic("vm: malformed snapshot value")
	}
}
