package source

import "testing"

func TestSpanUnion(t *testing.T) {
	a := NewSpan(3, 7)
	b := NewSpan(5, 10)
	u := a.Union(b)
	//
	if u.Start() != 3 || u.End() != 10 {
		t.Fatalf("expected [3,10), got [%d,%d)", u.Start(), u.End())
	}
}

func TestFileTextAndFindEnclosingLine(t *testing.T) {
	f := NewFile("t.stl", []byte("abc\ndef\nghi"))
	//
	if got := f.Text(NewSpan(4, 7)); got != "def" {
		t.Fatalf("expected def, got %q", got)
	}
	//
	line := f.FindEnclosingLine(NewSpan(5, 5))
	if line.Number() != 2 || line.String() != "def" {
		t.Fatalf("expected line 2 'def', got line %d %q", line.Number(), line.String())
	}
}

func TestSyntaxErrorMessage(t *testing.T) {
	f := NewFile("t.stl", []byte("let x = 1;\nbad"))
	err := f.NewSyntaxError(NewSpan(11, 14), "unexpected token")
	//
	if got, want := err.Error(), "t.stl:2: unexpected token"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
