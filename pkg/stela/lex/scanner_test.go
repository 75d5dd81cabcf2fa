package lex

import "testing"

func TestUnitMatchesExactSequence(t *testing.T) {
	scan := Unit('a', 'b', 'c')
	//
	if n := scan([]rune("abcdef")); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	//
	if n := scan([]rune("abx")); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestManyIsGreedyAndAllowsZero(t *testing.T) {
	scan := Many(Within('0', '9'))
	//
	if n := scan([]rune("123abc")); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	//
	if n := scan([]rune("abc")); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestOrTriesInOrder(t *testing.T) {
	scan := Or(Unit('a'), Unit('b'))
	//
	if n := scan([]rune("b")); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	//
	if n := scan([]rune("c")); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestAndTakesLongestAgreeingPrefix(t *testing.T) {
	// Both must match some prefix; And returns the longest agreed length.
	scan := And(Unit('a'), Many(Within('a', 'z')))
	//
	if n := scan([]rune("abc123")); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
}

func TestUntilStopsAtDelimiterOrConsumesAll(t *testing.T) {
	scan := Until('\n')
	//
	if n := scan([]rune("hello\nworld")); n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}
	//
	if n := scan([]rune("hello")); n != 5 {
		t.Fatalf("expected 5, got %d", n)
	}
}

func TestSequenceRequiresEachInTurn(t *testing.T) {
	scan := Sequence(Unit('a'), Unit('b'), Unit('c'))
	//
	if n := scan([]rune("abcd")); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	//
	if n := scan([]rune("abd")); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestEofOnlyMatchesEmptyInput(t *testing.T) {
	scan := Eof[rune]()
	//
	if n := scan(nil); n != 1 {
		t.Fatalf("expected 1, got %d", n)
	}
	//
	if n := scan([]rune("x")); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}
