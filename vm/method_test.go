package vm

import "testing"

func TestMethodDescriptorPackUnpackRoundTrip(t *testing.T) {
	cases := []MethodDescriptor{
		{Arity: 0, Kind: MethodKindMethod, MaxHeight: 0, Value: 12},
		{Arity: 3, Kind: MethodKindLambda, MaxHeight: 40, Value: -7},
		{Arity: 1, Kind: MethodKindBlock, MaxHeight: MaxMethodHeight, Value: 0},
		{Arity: 2, Kind: MethodKindFieldAccessor, MaxHeight: 4, Value: 300},
	}
	for _, d := range cases {
		arity, kindAndHeight, value := d.Pack()
		got := UnpackMethodDescriptor(arity, kindAndHeight, value)
		if got != d {
			t.Errorf("round trip of %+v produced %+v", d, got)
		}
	}
}

func TestMethodDescriptorPackRejectsNonMultipleOfFourHeight(t *testing.T) {
	d := MethodDescriptor{Kind: MethodKindMethod, MaxHeight: 5}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic packing a max height that is not a multiple of 4")
		}
	}()
	d.Pack()
}

func TestMethodDescriptorPackRejectsOversizedHeight(t *testing.T) {
	d := MethodDescriptor{Kind: MethodKindMethod, MaxHeight: MaxMethodHeight + 4}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic packing a max height past the packed field width")
		}
	}()
	d.Pack()
}

func TestMethodDescriptorValueInterpretations(t *testing.T) {
	method := MethodDescriptor{Kind: MethodKindMethod, Value: 8}
	if method.SelectorOffset() != 8 {
		t.Errorf("SelectorOffset() = %d, want 8", method.SelectorOffset())
	}

	lambda := MethodDescriptor{Kind: MethodKindLambda, Value: 2}
	if lambda.CapturedCount() != 2 {
		t.Errorf("CapturedCount() = %d, want 2", lambda.CapturedCount())
	}
}

func TestMethodKindString(t *testing.T) {
	cases := map[MethodKind]string{
		MethodKindMethod:        "method",
		MethodKindLambda:        "lambda",
		MethodKindBlock:         "block",
		MethodKindFieldAccessor: "field_accessor",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", kind, got, want)
		}
	}
}
