package vm

import (
	"fmt"
	"sync"
	"unsafe"
)

// Class describes one entry in the program's class table: the
// user-visible identity looked up by ClassID, and the shape it backs.
//
// NumSlots is the fixed instance size for instance-shaped classes. It is
// 0 for classes whose instances are variable-length (arrays, byte
// arrays, strings) — those shapes carry their own length.
type Class struct {
	Name       string
	Namespace  string
	Superclass *Class
	InstVars   []string
	NumSlots   int
	Tag        ClassTag
}

// InstVarIndex returns the slot index for an instance variable by name,
// walking the superclass chain. Returns -1 if not found.
func (c *Class) InstVarIndex(name string) int {
	offset := 0
	if c.Superclass != nil {
		offset = c.Superclass.NumSlots
	}
	for i, n := range c.InstVars {
		if n == name {
			return offset + i
		}
	}
	if c.Superclass != nil {
		return c.Superclass.InstVarIndex(name)
	}
	return -1
}

// IsSubclassOf reports whether c is other or a descendant of other.
func (c *Class) IsSubclassOf(other *Class) bool {
	for cur := c; cur != nil; cur = cur.Superclass {
		if cur == other {
			return true
		}
	}
	return false
}

// FullName returns "namespace::name", or just "name" with no namespace.
func (c *Class) FullName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "::" + c.Name
}

func (c *Class) String() string { return c.FullName() }

// ClassTable is the program's class registry: an append-only, boot-time
// table mapping class ids to Class descriptors. It is read-only once the
// program heap is sealed, matching §3.5's program/process ownership
// split — every process shares one immutable ClassTable.
type ClassTable struct {
	mu     sync.RWMutex
	byName map[string]*Class
	byID   []*Class
}

// NewClassTable creates an empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{byName: make(map[string]*Class)}
}

// Register appends c to the table and assigns it a class id. It panics
// if the table would overflow the 10-bit class-id field — a fatal
// configuration error, since the header can never address it.
func (ct *ClassTable) Register(c *Class) uint16 {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if len(ct.byID) > classIDMax {
		panic("vm: class table exceeds 10-bit class id space")
	}
	id := uint16(len(ct.byID))
	ct.byID = append(ct.byID, c)
	ct.byName[ct.classKey(c)] = c
	return id
}

func (ct *ClassTable) classKey(c *Class) string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "::" + c.Name
}

// Lookup finds a class by its fully qualified name.
func (ct *ClassTable) Lookup(name string) *Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.byName[name]
}

// ByID returns the class registered at id, or nil if id is out of range.
func (ct *ClassTable) ByID(id uint16) *Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	if int(id) >= len(ct.byID) {
		return nil
	}
	return ct.byID[id]
}

// Len returns the number of registered classes.
func (ct *ClassTable) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.byID)
}

// Program is the read-only, boot-time-immutable collaborator shared by
// every process (§3.5, §6). It answers the questions the object model
// needs of the interpreter/compiler layer without depending on either.
type Program struct {
	Classes *ClassTable

	// bytecode is the flat region holding every method's instructions.
	// Stack.roots_do and frames_do use its address range to distinguish
	// raw return-bytecode-pointers left on the stack from tagged values.
	bytecode []byte

	// frameMarker is the address of the distinguished frame-marker
	// object; it is treated as part of the bytecode range for the
	// purposes of root scanning even though it may not fall inside the
	// bytecode slice itself.
	frameMarker uintptr

	ByteArrayCowClassID   uint16
	ByteArraySliceClassID uint16
	StringSliceClassID    uint16

	// ByteArrayClassID is the class every process's AllocateByteArray
	// uses for the byte arrays it allocates internally. Registered
	// automatically by NewProgram, at the same position in every class
	// table, so a heap snapshot's ClassID for such an object always
	// resolves consistently regardless of what other classes an embedder
	// registers afterwards.
	ByteArrayClassID uint16

	NilObject   Value
	TrueObject  Value
	FalseObject Value
}

// NewProgram creates a Program over a fixed bytecode image. The slice
// must not be reallocated afterwards: Stack scanning keys off its
// address range. The three canonical oddballs (nil, true, false) are
// registered in the class table and allocated immediately, since every
// process needs them before it can allocate anything else.
func NewProgram(bytecode []byte) *Program {
	p := &Program{
		Classes:  NewClassTable(),
		bytecode: bytecode,
	}
	if len(bytecode) > 0 {
		p.frameMarker = uintptr(unsafe.Pointer(&bytecode[0]))
	}
	p.NilObject = newOddball(p, p.Classes.Register(&Class{Name: "Nil", Tag: TagOddball}), "nil")
	p.TrueObject = newOddball(p, p.Classes.Register(&Class{Name: "True", Tag: TagOddball}), "true")
	p.FalseObject = newOddball(p, p.Classes.Register(&Class{Name: "False", Tag: TagOddball}), "false")
	p.ByteArrayClassID = p.Classes.Register(&Class{Name: "ByteArray_", Tag: TagByteArray})
	return p
}

// Nil returns the program's canonical nil object.
func (p *Program) Nil() Value { return p.NilObject }

// True returns the program's canonical true object.
func (p *Program) True() Value { return p.TrueObject }

// False returns the program's canonical false object.
func (p *Program) False() Value { return p.FalseObject }

// Bool returns True() or False() for the given Go bool.
func (p *Program) Bool(b bool) Value {
	if b {
		return p.TrueObject
	}
	return p.FalseObject
}

// DefineByteArrayCowClass registers the class backing copy-on-write
// byte array wrappers and records its id for byte_content/
// mutable_byte_content dispatch (§4.4).
func (p *Program) DefineByteArrayCowClass() uint16 {
	p.ByteArrayCowClassID = p.Classes.Register(&Class{Name: "ByteArrayCow_", Tag: TagInstance, NumSlots: numCowSlots})
	return p.ByteArrayCowClassID
}

// DefineByteArraySliceClass registers the class backing byte array
// slice views and records its id.
func (p *Program) DefineByteArraySliceClass() uint16 {
	p.ByteArraySliceClassID = p.Classes.Register(&Class{Name: "ByteArraySlice_", Tag: TagInstance, NumSlots: numSliceSlots})
	return p.ByteArraySliceClassID
}

// DefineStringSliceClass registers the class backing string slice
// views and records its id.
func (p *Program) DefineStringSliceClass() uint16 {
	p.StringSliceClassID = p.Classes.Register(&Class{Name: "StringSlice_", Tag: TagInstance, NumSlots: numSliceSlots})
	return p.StringSliceClassID
}

// SetFrameMarker overrides the frame-marker address. Used when the
// frame marker is a distinguished sentinel object living outside the
// bytecode slice itself.
func (p *Program) SetFrameMarker(addr uintptr) { p.frameMarker = addr }

// FrameMarker returns the address that signals the start of a call
// frame when found in a stack slot.
func (p *Program) FrameMarker() uintptr { return p.frameMarker }

// Bytecodes returns the base address and length of the program's flat
// bytecode region.
func (p *Program) Bytecodes() (base uintptr, length int) {
	if len(p.bytecode) == 0 {
		return 0, 0
	}
	return uintptr(unsafe.Pointer(&p.bytecode[0])), len(p.bytecode)
}

// AbsoluteBCIFromBCP converts a raw bytecode pointer found on the stack
// into an index relative to the start of the bytecode region.
func (p *Program) AbsoluteBCIFromBCP(bcp uintptr) int {
	base, _ := p.Bytecodes()
	return int(bcp - base)
}

// InBytecodeRange reports whether addr falls inside the program's
// bytecode region, or is exactly the frame-marker address. Stack root
// scanning uses this to skip raw return addresses.
func (p *Program) InBytecodeRange(addr uintptr) bool {
	if addr == p.frameMarker {
		return true
	}
	base, length := p.Bytecodes()
	return length > 0 && addr >= base && addr < base+uintptr(length)
}

// InstanceSizeFor returns the fixed slot count for classID, or 0 for a
// variable-shape class (arrays, byte arrays, strings).
func (p *Program) InstanceSizeFor(classID uint16) int {
	c := p.Classes.ByID(classID)
	if c == nil {
		return 0
	}
	return c.NumSlots
}

// ClassTagFor returns the shape tag registered for classID. Unknown
// class ids are a fatal configuration error: the header can never have
// been produced for a class the program doesn't know about.
func (p *Program) ClassTagFor(classID uint16) ClassTag {
	c := p.Classes.ByID(classID)
	if c == nil {
		panic(fmt.Sprintf("vm: unknown class id %d", classID))
	}
	return c.Tag
}
