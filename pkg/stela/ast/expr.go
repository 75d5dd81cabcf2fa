package ast

// Expr is the tagged-variant interface implemented by every expression node.
// Every expression carries its resolved type once semantic analysis has run
// (nil beforehand); an optional expected context type is used by `make` and
// array/init-list literals to propagate element types downward.
type Expr interface {
	Node
	// ResolvedType returns this expression's type, or nil before semantic
	// analysis has run (invariant: every resolved expression has a non-null
	// type, §3).
	ResolvedType() *ExprType
	// SetResolvedType records the type computed for this expression.
	SetResolvedType(ExprType)
	isExpr()
}

type exprBase struct {
	base
	resolved *ExprType
}

func (e *exprBase) ResolvedType() *ExprType    { return e.resolved }
func (e *exprBase) SetResolvedType(t ExprType) { e.resolved = &t }

// BinOp enumerates binary operators. The order is contiguous within each
// operator category (§9, "Builtin type order is significant") so range
// checks like IsArithmetic below stay simple arithmetic rather than a
// per-operator switch.
type BinOp uint8

const (
	// boolean category
	LogOr BinOp = iota
	LogAnd
	// bitwise category
	BitOr
	BitXor
	BitAnd
	// equality category
	CmpEq
	CmpNeq
	// order category
	CmpLt
	CmpLtEq
	CmpGt
	CmpGtEq
	// shift category
	ShiftL
	ShiftR
	// arithmetic category
	Add
	Sub
	Mul
	Div
	Mod
)

// IsBoolCategory reports whether op is a boolean operator (applies only to
// bool operands).
func (op BinOp) IsBoolCategory() bool { return op == LogOr || op == LogAnd }

// IsBitwiseCategory reports whether op is a bitwise operator (applies only
// to byte/uint operands).
func (op BinOp) IsBitwiseCategory() bool {
	return op >= BitOr && op <= BitAnd || op == ShiftL || op == ShiftR
}

// IsComparisonCategory reports whether op is an equality or order operator.
func (op BinOp) IsComparisonCategory() bool { return op >= CmpEq && op <= CmpGtEq }

// IsArithmeticCategory reports whether op is an arithmetic operator (applies
// to char/real/sint/uint operands).
func (op BinOp) IsArithmeticCategory() bool { return op >= Add && op <= Mod }

// UnOp enumerates unary prefix operators.
type UnOp uint8

const (
	Neg UnOp = iota // -x
	Not             // !x
	BitNot          // ~x
)

// Binary is a binary operator application.
type Binary struct {
	exprBase
	Op          BinOp
	Left, Right Expr
}

// NewBinary constructs a binary-operator expression node.
func NewBinary(span Span, op BinOp, left, right Expr) *Binary {
	return &Binary{exprBase{base: base{span}}, op, left, right}
}

func (*Binary) isExpr() {}

// Unary is a unary prefix operator application.
type Unary struct {
	exprBase
	Op      UnOp
	Operand Expr
}

// NewUnary constructs a unary-operator expression node.
func NewUnary(span Span, op UnOp, operand Expr) *Unary {
	return &Unary{exprBase{base: base{span}}, op, operand}
}

func (*Unary) isExpr() {}

// Call is a function call expression: `callee(args...)`. Definition records
// which kind of callee this resolved to, per the invariant in §3: a user
// Func, an external Func, a BuiltinFunc, or unresolved (null) for an
// indirect call through a function-typed value.
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
	// Definition is set by the semantic analyzer for qualified/free/builtin
	// calls; it is left unresolved for an indirect call (callee is itself a
	// function-typed value, evaluated and invoked through its closure/
	// function-pointer pair).
	Definition Ref[Binding]
	// Indirect marks a call resolved as case 4 of §4.4.3 (callee is a
	// function-typed value, not a name).
	Indirect bool
}

// NewCall constructs a call expression node.
func NewCall(span Span, callee Expr, args []Expr) *Call {
	return &Call{exprBase{base: base{span}}, callee, args, NewRef[Binding](""), false}
}

func (*Call) isExpr() {}

// Member is a `.` field-access expression.
type Member struct {
	exprBase
	Object Expr
	Field  string
	// FieldIndex is the resolved offset of Field within Object's struct/user
	// type, filled in by semantic analysis.
	FieldIndex int
}

// NewMember constructs a member-access expression node.
func NewMember(span Span, object Expr, field string) *Member {
	return &Member{exprBase{base: base{span}}, object, field, -1}
}

func (*Member) isExpr() {}

// Subscript is an `object[index]` array-indexing expression.
type Subscript struct {
	exprBase
	Object, Index Expr
}

// NewSubscript constructs a subscript expression node.
func NewSubscript(span Span, object, index Expr) *Subscript {
	return &Subscript{exprBase{base: base{span}}, object, index}
}

func (*Subscript) isExpr() {}

// Ident is a bare identifier reference. Definition is set to whichever kind
// of symbol it resolved to: an Object, a DeclAssign-introduced local, a
// FuncParam, a Var, a Let, or a Func (§3 invariants).
type Ident struct {
	exprBase
	Name       string
	Definition Ref[Binding]
}

// NewIdent constructs an identifier expression node.
func NewIdent(span Span, name string) *Ident {
	return &Ident{exprBase{base: base{span}}, name, NewRef[Binding](name)}
}

func (*Ident) isExpr() {}

// Ternary is `cond ? then : otherwise`.
type Ternary struct {
	exprBase
	Cond, Then, Else Expr
}

// NewTernary constructs a ternary-conditional expression node.
func NewTernary(span Span, cond, then, els Expr) *Ternary {
	return &Ternary{exprBase{base: base{span}}, cond, then, els}
}

func (*Ternary) isExpr() {}

// Make is `make T expr`: a cast between builtins, or a construction of an
// aggregate (§6, "make T is both cast (for builtins) and construct (for
// aggregates)").
type Make struct {
	exprBase
	TargetType Type
	Arg        Expr // nil for a zero-argument default-construction
}

// NewMake constructs a make-expression node.
func NewMake(span Span, target Type, arg Expr) *Make {
	return &Make{exprBase{base: base{span}}, target, arg}
}

func (*Make) isExpr() {}

// StringLit is a string literal.
type StringLit struct {
	exprBase
	Value string
}

// NewStringLit constructs a string literal node.
func NewStringLit(span Span, value string) *StringLit {
	return &StringLit{exprBase{base: base{span}}, value}
}

func (*StringLit) isExpr() {}

// CharLit is a character literal.
type CharLit struct {
	exprBase
	Value rune
}

// NewCharLit constructs a character literal node.
func NewCharLit(span Span, value rune) *CharLit {
	return &CharLit{exprBase{base: base{span}}, value}
}

func (*CharLit) isExpr() {}

// NumberLit is a numeric literal; its textual suffix (or absence of one)
// determines whether it defaults to sint, uint, or real (resolved onto
// ResolvedType by semantic analysis).
type NumberLit struct {
	exprBase
	Text string
}

// NewNumberLit constructs a numeric literal node from its source text.
func NewNumberLit(span Span, text string) *NumberLit {
	return &NumberLit{exprBase{base: base{span}}, text}
}

func (*NumberLit) isExpr() {}

// BoolLit is `true` or `false`.
type BoolLit struct {
	exprBase
	Value bool
}

// NewBoolLit constructs a boolean literal node.
func NewBoolLit(span Span, value bool) *BoolLit {
	return &BoolLit{exprBase{base: base{span}}, value}
}

func (*BoolLit) isExpr() {}

// ArrayLit is an array literal `[e1, e2, ...]` or `make [T]{...}`.
type ArrayLit struct {
	exprBase
	Elems []Expr
}

// NewArrayLit constructs an array-literal expression node.
func NewArrayLit(span Span, elems []Expr) *ArrayLit {
	return &ArrayLit{exprBase{base: base{span}}, elems}
}

func (*ArrayLit) isExpr() {}

// InitListLit is a brace-init-list literal used to construct a Struct or
// User value field-by-field in declaration order.
type InitListLit struct {
	exprBase
	Elems []Expr
}

// NewInitListLit constructs an init-list literal expression node.
func NewInitListLit(span Span, elems []Expr) *InitListLit {
	return &InitListLit{exprBase{base: base{span}}, elems}
}

func (*InitListLit) isExpr() {}

// LambdaLit is a closure literal: `func(params) -> ret { body }` used in
// expression position. Binding is allocated and its Captures populated by
// capture analysis (§4.4.4) once the body has been walked.
type LambdaLit struct {
	exprBase
	Params []FuncParam
	Ret    Type
	Body   *Block
	// Binding is the SymbolId of the LambdaBinding allocated for this
	// literal.
	Binding SymbolId
}

// NewLambdaLit constructs a lambda-literal expression node.
func NewLambdaLit(span Span, params []FuncParam, ret Type, body *Block) *LambdaLit {
	return &LambdaLit{exprBase{base: base{span}}, params, ret, body, InvalidSymbol}
}

func (*LambdaLit) isExpr() {}
