package vm

import "testing"

func TestNewArrayFilledWithNil(t *testing.T) {
	f := newTestFixture()
	a := NewArray(f.heap(), f.program, f.arrayClassID, 5)

	if a.Length() != 5 {
		t.Fatalf("Length() = %d, want 5", a.Length())
	}
	for i := 0; i < 5; i++ {
		if a.At(i) != f.program.Nil() {
			t.Errorf("slot %d = %v, want nil", i, a.At(i))
		}
	}
}

func TestArrayAtPut(t *testing.T) {
	f := newTestFixture()
	a := NewArray(f.heap(), f.program, f.arrayClassID, 3)

	v := SmallIntegerFrom(99)
	a.AtPut(1, v)
	if a.At(1) != v {
		t.Errorf("At(1) = %v, want %v", a.At(1), v)
	}
	if a.At(0) != f.program.Nil() || a.At(2) != f.program.Nil() {
		t.Error("unrelated slots mutated by AtPut")
	}
}

func TestArrayFill(t *testing.T) {
	f := newTestFixture()
	a := NewArray(f.heap(), f.program, f.arrayClassID, 4)
	filler := SmallIntegerFrom(7)

	a.Fill(2, filler)
	for i := 0; i < 2; i++ {
		if a.At(i) != f.program.Nil() {
			t.Errorf("slot %d filled early, got %v", i, a.At(i))
		}
	}
	for i := 2; i < 4; i++ {
		if a.At(i) != filler {
			t.Errorf("slot %d = %v, want %v", i, a.At(i), filler)
		}
	}
}

func TestArraySize(t *testing.T) {
	f := newTestFixture()
	a := NewArray(f.heap(), f.program, f.arrayClassID, 3)
	want := headerSize + (1+3)*wordSize
	if got := a.Size(f.program); got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}
}

func TestArrayRootsDoVisitsEverySlot(t *testing.T) {
	f := newTestFixture()
	a := NewArray(f.heap(), f.program, f.arrayClassID, 3)
	a.AtPut(0, SmallIntegerFrom(1))
	a.AtPut(1, SmallIntegerFrom(2))
	a.AtPut(2, SmallIntegerFrom(3))

	var visited []int
	a.RootsDo(f.program, RootVisitorFunc(func(slot *Value) {
		visited = append(visited, SmallIntegerValue(*slot))
		*slot = SmallIntegerFrom(SmallIntegerValue(*slot) * 10)
	}))

	if len(visited) != 3 {
		t.Fatalf("visited %d slots, want 3", len(visited))
	}
	if a.At(0) != SmallIntegerFrom(10) || a.At(2) != SmallIntegerFrom(30) {
		t.Error("RootsDo must let the visitor rewrite slots in place")
	}
}
