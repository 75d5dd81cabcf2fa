package lex

import "testing"

func TestLexerCollectsTokensUntilExhausted(t *testing.T) {
	rules := []Rule[rune]{
		NewRule(Many(Within('0', '9')), 1),
		NewRule(Unit('+'), 2),
	}
	lexer := NewLexer([]rune("12+3"), rules...)
	tokens := lexer.Collect()
	//
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	//
	if tokens[0].Kind != 1 || tokens[0].Start != 0 || tokens[0].End != 2 {
		t.Fatalf("unexpected first token: %+v", tokens[0])
	}
	//
	if tokens[1].Kind != 2 {
		t.Fatalf("unexpected second token: %+v", tokens[1])
	}
	//
	if tokens[2].Length() != 1 {
		t.Fatalf("unexpected third token length: %+v", tokens[2])
	}
	//
	if lexer.Remaining() != 0 {
		t.Fatalf("expected no remaining input, got %d", lexer.Remaining())
	}
}

func TestLexerNextFailsOnUnrecognisedInput(t *testing.T) {
	rules := []Rule[rune]{NewRule(Unit('a'), 1)}
	lexer := NewLexer([]rune("ab"), rules...)
	//
	if _, ok := lexer.Next(); !ok {
		t.Fatalf("expected first token to match")
	}
	//
	if _, ok := lexer.Next(); ok {
		t.Fatalf("expected second token to fail to match")
	}
	//
	if lexer.Remaining() != 1 {
		t.Fatalf("expected 1 remaining item, got %d", lexer.Remaining())
	}
}

func TestFirstMatchingRuleWinsRegardlessOfLength(t *testing.T) {
	rules := []Rule[rune]{
		NewRule(Unit('a'), 1),
		NewRule(And(Unit('a'), Many(Within('a', 'z'))), 2),
	}
	lexer := NewLexer([]rune("abc"), rules...)
	tok, ok := lexer.Next()
	//
	if !ok || tok.Kind != 1 || tok.Length() != 1 {
		t.Fatalf("expected rule-order priority, got %+v (ok=%v)", tok, ok)
	}
}
