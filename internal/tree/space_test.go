package tree

import "testing"

func TestSpaceOperatorApply(t *testing.T) {
	tests := []struct {
		op   SpaceOperator
		run  string
		want string
	}{
		{SpacePreserve, " \t\n", " \t\n"},
		{SpaceRemove, " \t\n", ""},
		{SpaceNormalize, " \t ", " "},
		{SpaceNormalize, "", ""},
		{SpaceCollapse, "  ", " "},
		{SpaceCollapse, " \n ", "\n"},
		{SpaceCollapse, "\f", "\n"},
		{SpaceCollapse, "", ""},
	}
	for _, tt := range tests {
		if got := tt.op.Apply(tt.run); got != tt.want {
			t.Errorf("%s.Apply(%q) = %q, want %q", tt.op, tt.run, got, tt.want)
		}
	}
}

func TestSpaceOperatorPanicsOnText(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	SpaceNormalize.Apply(" x ")
}

func TestSpaceOperatorSetInherit(t *testing.T) {
	partial := SpaceOperatorSet{Interior: SpacePreserve}
	got := partial.InheritFrom(DefaultSpaceOps)
	want := SpaceOperatorSet{Interior: SpacePreserve, Exterior: SpaceRemove}
	if got != want {
		t.Fatalf("InheritFrom = %v, want %v", got, want)
	}
	if !got.Complete() || partial.Complete() {
		t.Fatalf("unexpected completeness")
	}
	if DefaultSpaceOps.InheritFrom(PreservingSpaceOps) != DefaultSpaceOps {
		t.Fatalf("complete sets must not inherit")
	}
}

func TestParseSpaceOperator(t *testing.T) {
	for _, op := range []SpaceOperator{SpaceInherit, SpacePreserve, SpaceRemove, SpaceNormalize, SpaceCollapse} {
		got, err := ParseSpaceOperator(op.String())
		if err != nil || got != op {
			t.Errorf("round trip of %s: got %v, %v", op, got, err)
		}
	}
	if _, err := ParseSpaceOperator("squash"); err == nil {
		t.Errorf("expected error for unknown operator")
	}
}
