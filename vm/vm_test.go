package vm

// testFixture builds a Program with a handful of classes registered —
// enough for every shape test in this package to allocate against —
// plus a fresh Process/Heap over it.
type testFixture struct {
	program *Program
	process *Process

	arrayClassID     uint16
	instanceClassID  uint16
	taskClassID      uint16
	byteArrayClassID uint16
	stringClassID    uint16
	largeIntClassID  uint16
	doubleClassID    uint16
	stackClassID     uint16
}

func newTestFixture() *testFixture {
	program := NewProgram(make([]byte, 256))
	f := &testFixture{program: program}

	f.arrayClassID = program.Classes.Register(&Class{Name: "TestArray", Tag: TagArray})
	f.instanceClassID = program.Classes.Register(&Class{Name: "TestInstance", Tag: TagInstance, NumSlots: 6})
	f.taskClassID = program.Classes.Register(&Class{Name: "TestTask", Tag: TagTask, NumSlots: 4})
	f.byteArrayClassID = program.Classes.Register(&Class{Name: "TestByteArray", Tag: TagByteArray})
	f.stringClassID = program.Classes.Register(&Class{Name: "TestString", Tag: TagString})
	f.largeIntClassID = program.Classes.Register(&Class{Name: "TestLargeInteger", Tag: TagLargeInteger})
	f.doubleClassID = program.Classes.Register(&Class{Name: "TestDouble", Tag: TagDouble})
	f.stackClassID = program.Classes.Register(&Class{Name: "TestStack", Tag: TagStack})

	program.DefineByteArrayCowClass()
	program.DefineByteArraySliceClass()
	program.DefineStringSliceClass()

	f.process = NewProcess(program)
	return f
}

func (f *testFixture) heap() *Heap { return f.process.Heap() }
