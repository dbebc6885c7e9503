package vm

import "testing"

func TestStackTransferRoundTripPreservesFields(t *testing.T) {
	f := newTestFixture()
	s := NewStack(f.heap(), f.program, f.stackClassID, 32)
	s.AtPut(20, SmallIntegerFrom(11))

	if s.IsTransferred() {
		t.Fatal("a freshly allocated stack must not be transferred")
	}

	slots, top := s.TransferToInterpreter()
	if top != s.Length() {
		t.Fatalf("top handed to interpreter = %d, want %d", top, s.Length())
	}
	if !s.IsTransferred() {
		t.Fatal("expected IsTransferred after TransferToInterpreter")
	}
	if slots[20] != SmallIntegerFrom(11) {
		t.Fatal("interpreter must see the same backing slots")
	}

	slots[20] = SmallIntegerFrom(99)
	s.TransferFromInterpreter(18)

	if s.IsTransferred() {
		t.Fatal("expected !IsTransferred after TransferFromInterpreter")
	}
	if s.Top() != 18 {
		t.Fatalf("Top() = %d, want 18", s.Top())
	}
	if s.At(20) != SmallIntegerFrom(99) {
		t.Fatal("mutations made through the interpreter's slots must be visible afterward")
	}
}

func TestStackDoubleTransferPanics(t *testing.T) {
	f := newTestFixture()
	s := NewStack(f.heap(), f.program, f.stackClassID, 8)
	s.TransferToInterpreter()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic transferring an already-transferred stack")
		}
	}()
	s.TransferToInterpreter()
}

func TestStackRootsDoSkipsBytecodeRange(t *testing.T) {
	f := newTestFixture()
	s := NewStack(f.heap(), f.program, f.stackClassID, 8)

	base, _ := f.program.Bytecodes()
	s.AtPut(3, Value(base))
	s.AtPut(4, SmallIntegerFrom(42))
	s.SetTop(3)

	var visited []Value
	s.RootsDo(f.program, RootVisitorFunc(func(slot *Value) {
		visited = append(visited, *slot)
	}))

	for _, v := range visited {
		if uintptr(v) == base {
			t.Fatal("RootsDo must skip raw bytecode-range addresses")
		}
	}
	found := false
	for _, v := range visited {
		if v == SmallIntegerFrom(42) {
			found = true
		}
	}
	if !found {
		t.Fatal("RootsDo must still visit ordinary tagged slots")
	}
}

func TestStackRootsDoPanicsWhileTransferred(t *testing.T) {
	f := newTestFixture()
	s := NewStack(f.heap(), f.program, f.stackClassID, 8)
	s.TransferToInterpreter()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling RootsDo on a transferred stack")
		}
	}()
	s.RootsDo(f.program, RootVisitorFunc(func(slot *Value) {}))
}

func TestStackFramesDoReportsOnlyCompletedFrames(t *testing.T) {
	f := newTestFixture()
	s := NewStack(f.heap(), f.program, f.stackClassID, 16)
	marker := Value(f.program.FrameMarker())
	base, _ := f.program.Bytecodes()

	// Live region, bottom to top: [marker, retAddrA, marker, retAddrB].
	s.SetTop(12)
	s.AtPut(12, marker)
	s.AtPut(13, Value(base+1))
	s.AtPut(14, marker)
	s.AtPut(15, Value(base+2))

	var frames []Frame
	s.FramesDo(f.program, func(fr Frame) { frames = append(frames, fr) })

	if len(frames) != 2 {
		t.Fatalf("FramesDo reported %d frames, want 2", len(frames))
	}
	if frames[0].MarkerIndex != 12 {
		t.Errorf("frames[0].MarkerIndex = %d, want 12", frames[0].MarkerIndex)
	}
	if frames[1].MarkerIndex != 14 {
		t.Errorf("frames[1].MarkerIndex = %d, want 14", frames[1].MarkerIndex)
	}
	if frames[1].ReturnAddr != base+1 {
		t.Errorf("frames[1].ReturnAddr = %d, want %d (lagging by one marker)", frames[1].ReturnAddr, base+1)
	}
}

func TestStackCopyToShiftsIndices(t *testing.T) {
	f := newTestFixture()
	s := NewStack(f.heap(), f.program, f.stackClassID, 8)
	s.SetTop(6)
	s.SetTryTop(7)
	s.AtPut(6, SmallIntegerFrom(1))
	s.AtPut(7, SmallIntegerFrom(2))

	bigger := NewStack(f.heap(), f.program, f.stackClassID, 16)
	s.CopyTo(bigger, 16)

	displacement := 16 - 8
	if bigger.Top() != 6+displacement {
		t.Errorf("Top() after CopyTo = %d, want %d", bigger.Top(), 6+displacement)
	}
	if bigger.TryTop() != 7+displacement {
		t.Errorf("TryTop() after CopyTo = %d, want %d", bigger.TryTop(), 7+displacement)
	}
	if bigger.At(6+displacement) != SmallIntegerFrom(1) {
		t.Error("slot content must carry over at the displaced index")
	}
}

func TestStackCopyToRejectsShrinking(t *testing.T) {
	f := newTestFixture()
	s := NewStack(f.heap(), f.program, f.stackClassID, 16)
	smaller := NewStack(f.heap(), f.program, f.stackClassID, 8)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic copying into a shorter target")
		}
	}()
	s.CopyTo(smaller, 8)
}
