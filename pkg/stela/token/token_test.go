package token

import (
	"testing"

	"github.com/stela-lang/stela/pkg/stela/source"
)

func lexText(t *testing.T, text string) []Token {
	t.Helper()
	//
	file := source.NewFile("t.stl", []byte(text))
	tokens, errs := Lex(file)
	//
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	//
	return tokens
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	tokens := lexText(t, "func foo return bar")
	kinds := []uint{FUNC, IDENTIFIER, RETURN, IDENTIFIER, EOF}
	//
	if len(tokens) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(kinds), len(tokens), tokens)
	}
	//
	for i, k := range kinds {
		if tokens[i].Kind != k {
			t.Fatalf("token %d: expected kind %d, got %d", i, k, tokens[i].Kind)
		}
	}
}

func TestLexOperatorsLongestMatchFirst(t *testing.T) {
	tokens := lexText(t, "<<= << <= <")
	kinds := []uint{SHL_ASSIGN, SHL, LTEQ, LT, EOF}
	//
	if len(tokens) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(kinds), len(tokens), tokens)
	}
	//
	for i, k := range kinds {
		if tokens[i].Kind != k {
			t.Fatalf("token %d: expected kind %d, got %d", i, k, tokens[i].Kind)
		}
	}
}

func TestLexStringAndCharLiterals(t *testing.T) {
	tokens := lexText(t, `"hello" 'x'`)
	//
	if len(tokens) != 3 || tokens[0].Kind != STRING || tokens[1].Kind != CHARACTER {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestLexSkipsWhitespaceAndComments(t *testing.T) {
	tokens := lexText(t, "let x // a comment\n= 1;")
	//
	if tokens[0].Kind != LET || tokens[1].Kind != IDENTIFIER || tokens[2].Kind != ASSIGN {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestLexUnterminatedStringIsAnError(t *testing.T) {
	file := source.NewFile("t.stl", []byte(`"unterminated`))
	_, errs := Lex(file)
	//
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
}

func TestCategoryClassification(t *testing.T) {
	tokens := lexText(t, "func x = 1 + 2")
	//
	if tokens[0].Category() != CategoryKeyword {
		t.Fatalf("expected keyword category")
	}
	//
	if tokens[1].Category() != CategoryIdentifier {
		t.Fatalf("expected identifier category")
	}
}

func TestLexUnsignedSuffixIsOneNumberToken(t *testing.T) {
	file := source.NewFile("t.stl", []byte("0u 1u 10 1.5"))
	tokens, errs := Lex(file)
	if len(errs) != 0 {
		t.Fatalf("unexpected lex errors: %v", errs)
	}
	//
	kinds := []uint{NUMBER, NUMBER, NUMBER, NUMBER, EOF}
	if len(tokens) != len(kinds) {
		t.Fatalf("expected %d tokens, got %d: %+v", len(kinds), len(tokens), tokens)
	}
	//
	for i, k := range kinds {
		if tokens[i].Kind != k {
			t.Fatalf("token %d: expected kind %d, got %d (%+v)", i, k, tokens[i].Kind, tokens[i])
		}
	}
	//
	texts := []string{"0u", "1u", "10", "1.5"}
	for i, want := range texts {
		if got := file.Text(tokens[i].Span); got != want {
			t.Fatalf("token %d: expected text %q, got %q", i, want, got)
		}
	}
}

func TestIsBuiltinTypeAndIsAssignOp(t *testing.T) {
	if !IsBuiltinType(UINT) || IsBuiltinType(FUNC) {
		t.Fatalf("IsBuiltinType misclassified")
	}
	//
	if !IsAssignOp(ADD_ASSIGN) || IsAssignOp(ASSIGN) {
		t.Fatalf("IsAssignOp misclassified")
	}
}
