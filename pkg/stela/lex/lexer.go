package lex

// Token associates a kind tag with the span of items it was matched over,
// measured in offsets into the original input sequence.
type Token struct {
	// Kind identifies the category of this token (e.g. keyword, operator).
	// The meaning of specific values is owned by the concrete lexer built on
	// top of this engine (see pkg/stela/token).
	Kind uint
	// Start is the offset of the first item of this token in the input.
	Start int
	// End is one past the offset of the last item of this token.
	End int
}

// Length returns the number of items spanned by this token.
func (t Token) Length() int {
	return t.End - t.Start
}

// Rule associates a scanner with the token kind it produces when it matches.
type Rule[T any] struct {
	scan Scanner[T]
	kind uint
}

// NewRule constructs a lexing rule which tags input matched by scan with kind.
func NewRule[T any](scan Scanner[T], kind uint) Rule[T] {
	return Rule[T]{scan, kind}
}

// Lexer tokenizes an input sequence according to an ordered list of rules:
// at each position the first rule (in order) which matches some non-empty
// prefix wins.
type Lexer[T any] struct {
	items []T
	index int
	rules []Rule[T]
}

// NewLexer constructs a lexer over items using the given ordered rule set.
func NewLexer[T any](items []T, rules ...Rule[T]) *Lexer[T] {
	return &Lexer[T]{items, 0, rules}
}

// Index returns the current position within the input.
func (l *Lexer[T]) Index() int {
	return l.index
}

// Remaining reports how many items of the input remain unconsumed.
func (l *Lexer[T]) Remaining() int {
	return max(0, len(l.items)-l.index)
}

// Next attempts to scan exactly one token starting at the current position.
// The boolean result is false when no rule matches (i.e. the input contains
// text no rule recognises); the returned Token is then the zero Token, and
// the caller is expected to treat that as a lexical error over the single
// item at Index().
func (l *Lexer[T]) Next() (Token, bool) {
	if l.index >= len(l.items) {
		return Token{}, false
	}
	//
	for _, rule := range l.rules {
		if n := rule.scan(l.items[l.index:]); n > 0 {
			tok := Token{rule.kind, l.index, l.index + int(n)}
			l.index += int(n)
			//
			return tok, true
		}
	}
	//
	return Token{}, false
}

// Collect scans tokens until either the input is exhausted or a position is
// reached which no rule accepts; it returns the tokens scanned so far. Use
// Remaining after calling Collect to detect the latter case.
func (l *Lexer[T]) Collect() []Token {
	var tokens []Token
	//
	for l.index < len(l.items) {
		tok, ok := l.Next()
		if !ok {
			break
		}
		//
		tokens = append(tokens, tok)
	}
	//
	return tokens
}
