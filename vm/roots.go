package vm

import "unsafe"

// RootVisitor receives every value-holding slot a heap object carries.
// Passing the slot's address (rather than its value) lets a single
// visitor both trace (read) and relocate (rewrite) pointers, which is
// what the scavenger's copying collector needs.
type RootVisitor interface {
	VisitSlot(slot *Value)
}

// RootVisitorFunc adapts a plain function to RootVisitor.
type RootVisitorFunc func(slot *Value)

// VisitSlot implements RootVisitor.
func (f RootVisitorFunc) VisitSlot(slot *Value) { f(slot) }

// PointerVisitor extends RootVisitor with a callback for raw,
// out-of-heap addresses — the external backing of byte arrays and
// strings — which the snapshotter must record but the collector never
// needs to chase (that memory is not garbage collected).
type PointerVisitor interface {
	RootVisitor
	VisitExternalPointer(ptr unsafe.Pointer, length int)
}

// pointerVisitorFuncs adapts two plain functions to PointerVisitor.
type pointerVisitorFuncs struct {
	visitSlot    func(slot *Value)
	visitExternal func(ptr unsafe.Pointer, length int)
}

func (f pointerVisitorFuncs) VisitSlot(slot *Value) { f.visitSlot(slot) }
func (f pointerVisitorFuncs) VisitExternalPointer(ptr unsafe.Pointer, length int) {
	if f.visitExternal != nil {
		f.visitExternal(ptr, length)
	}
}

// NewPointerVisitor builds a PointerVisitor from plain callbacks.
// onExternal may be nil if the caller only cares about in-heap slots.
func NewPointerVisitor(onSlot func(slot *Value), onExternal func(ptr unsafe.Pointer, length int)) PointerVisitor {
	return pointerVisitorFuncs{visitSlot: onSlot, visitExternal: onExternal}
}

// asPointerVisitor lifts a RootVisitor to a PointerVisitor whose
// external-pointer callback is a no-op, so shapes can implement
// DoPointers in terms of RootsDo when they carry no external memory.
func asPointerVisitor(v RootVisitor) PointerVisitor {
	if pv, ok := v.(PointerVisitor); ok {
		return pv
	}
	return pointerVisitorFuncs{visitSlot: v.VisitSlot}
}
