package vm

import (
	"reflect"
	"sync"
	"unsafe"
)

// wordSize is the byte width of one tagged Value.
const wordSize = wordBits / 8

// headerSize is the byte footprint of a header word. Every shape's
// Size() includes exactly one headerSize plus its variable payload.
const headerSize = wordSize

// blockBudget is the nominal number of bytes the allocator packs into
// one block before opening a fresh one. This models the page-sized
// arenas a block/bump allocator hands out on an embedded target; it is
// deliberately small so tests exercise multi-block scavenges without
// needing megabytes of fixture data.
const blockBudget = 4096

// block is one arena of the bump allocator: a batch of objects
// allocated contiguously and reclaimed together once unreachable.
type block struct {
	objects []HeapObject
	used    int
}

// Heap is a process-owned collection of blocks plus the live-object
// registry that resolves a tagged Value back to its HeapObject. Two
// processes never share a Heap (§3.5); only the program heap, which
// this type does not model (program objects are immutable and never
// scavenged), is shared.
type Heap struct {
	mu     sync.Mutex
	blocks []*block
	// objects maps a raw object address to the Go value implementing
	// it. This is the heap's liveness table: since tagged Values store
	// only a uintptr, holding the real *T pointer here is what keeps
	// Go's own collector from reclaiming an object that is otherwise
	// reachable only through tagged integers embedded in slots.
	objects map[uintptr]HeapObject

	program    *Program
	scavenging bool
}

// NewHeap creates an empty heap for program.
func NewHeap(program *Program) *Heap {
	h := &Heap{program: program, objects: make(map[uintptr]HeapObject)}
	h.blocks = append(h.blocks, &block{})
	return h
}

func (h *Heap) currentBlock() *block { return h.blocks[len(h.blocks)-1] }

func addressOf(o HeapObject) unsafe.Pointer {
	return unsafe.Pointer(reflect.ValueOf(o).Pointer())
}

// register accounts o's footprint against the current block (opening a
// fresh one if it would overflow), adds it to the live registry, and
// returns its tagged object pointer.
func (h *Heap) register(o HeapObject) Value {
	h.mu.Lock()
	defer h.mu.Unlock()

	size := o.Size(h.program)
	blk := h.currentBlock()
	if blk.used > 0 && blk.used+size > blockBudget {
		blk = &block{}
		h.blocks = append(h.blocks, blk)
	}
	blk.objects = append(blk.objects, o)
	blk.used += size

	addr := uintptr(addressOf(o))
	h.objects[addr] = o
	return HeapObjectFromRaw(unsafe.Pointer(addr))
}

// TaggedValueOf returns the tagged object pointer for o, an object
// already allocated on some heap (not necessarily this one — the tag
// encoding only depends on o's address).
func (h *Heap) TaggedValueOf(o HeapObject) Value {
	return HeapObjectFromRaw(addressOf(o))
}

// Lookup resolves a tagged object pointer to the HeapObject it was
// allocated as, or nil if v is not a heap pointer this heap owns (for
// example, a pointer into the shared, unscavenged program heap).
func (h *Heap) Lookup(v Value) HeapObject {
	if !IsHeapObject(v) {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.objects[uintptr(RawAddress(v))]
}

// IsAtBlockTop reports whether o is the most recently allocated object
// in the heap's current block — the precondition ByteArray.Resize asserts before
// shrinking an internal byte array in place.
func (h *Heap) IsAtBlockTop(o HeapObject) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	blk := h.currentBlock()
	return len(blk.objects) > 0 && blk.objects[len(blk.objects)-1] == o
}

// shrinkTop reduces the byte accounting for the top object of its block
// by delta, used by ByteArray.Resize. Precondition: IsAtBlockTop(o).
func (h *Heap) shrinkTop(delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentBlock().used -= delta
}

// installForwarding writes a forwarding pointer into o's header. It is
// only ever legal while a scavenge owned by this heap is in progress
// (§4.2); calling it otherwise is a fatal configuration error.
func (h *Heap) installForwarding(o HeapObject, target Value) {
	if !h.scavenging {
		panic("vm: forwarding pointer installed outside scavenge")
	}
	o.setHeader(Mark(target))
}

// BlockCount reports the number of blocks currently held, for tests and
// diagnostics.
func (h *Heap) BlockCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}

// Scavenge runs one copying-collector cycle: every reachable object,
// starting from roots, is cloned into a fresh heap and its old header
// is replaced with a forwarding pointer; every slot the walk visits —
// including the root slots themselves — is rewritten in place to point
// at the new location. Objects not reached from roots are left behind
// in h and become ordinary garbage for the host (Go) collector once h
// is dropped.
//
// Scavenge returns the new heap; the caller is responsible for making
// it the process's heap of record.
func (h *Heap) Scavenge(roots []*Value) *Heap {
	to := NewHeap(h.program)

	h.scavenging = true
	defer func() { h.scavenging = false }()

	var queue []HeapObject

	var forward func(slot *Value)
	forward = func(slot *Value) {
		v := *slot
		if !IsHeapObject(v) {
			return
		}
		old := h.Lookup(v)
		if old == nil {
			// Not owned by this heap: either a pointer into the
			// program's shared, read-only heap (never scavenged) or
			// a pointer into `to` from a prior forward in this pass.
			// Objects already evacuated are still found in h and are
			// resolved through their forwarding header below.
			return
		}
		if target, ok := forwardingTarget(old); ok {
			*slot = target
			return
		}
		fresh := old.clone()
		newVal := to.register(fresh)
		h.installForwarding(old, newVal)
		*slot = newVal
		queue = append(queue, fresh)
	}

	for _, r := range roots {
		forward(r)
	}
	for len(queue) > 0 {
		obj := queue[0]
		queue = queue[1:]
		obj.DoPointers(h.program, asPointerVisitor(RootVisitorFunc(forward)))
	}

	return to
}
