// Package vm implements the object model and heap representation shared by
// every process of the runtime: tagged values, the heap-object header,
// the concrete shapes (array, byte array, string, large integer, double,
// instance, task, stack), byte-content projection, and the root/pointer
// visitors consumed by garbage collection and snapshotting.
//
// The bytecode interpreter loop, the scheduler, and device primitives are
// external collaborators; this package only defines the contracts they
// consume (Program, Process, RootVisitor, PointerVisitor) and the memory
// shapes those contracts operate on.
package vm
