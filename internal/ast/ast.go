// Package ast defines the typed AST produced by internal/parser and walked
// by internal/interp. Every node is immutable after construction and
// carries a source Span (spec.md §3.5).
package ast

import "github.com/asynkron/jsengine/internal/token"

// Node is the root interface implemented by every AST node.
type Node interface {
	Span() token.Span
}

// Expression is any node that produces a value.
type Expression interface {
	Node
	exprNode()
}

// Statement is any node that performs an action.
type Statement interface {
	Node
	stmtNode()
}

// Base embeds the common Span bookkeeping every concrete node needs.
type Base struct {
	span token.Span
}

func (b Base) Span() token.Span { return b.span }

// NewBase constructs the Span-carrying embed shared by every node.
func NewBase(span token.Span) Base { return Base{span: span} }

// Program is the root of a parsed unit: either a Script or a Module.
type Program struct {
	Base
	Body     []Statement
	IsModule bool // forced strict; import/export/top-level-await permitted
	IsStrict bool // has a "use strict" prologue, or IsModule, or is class body

	// HoistedVars/HoistedFuncs are filled by internal/transform's hoisting
	// pass: every `var` name and top-level function declaration reachable
	// through nested blocks (but not through nested functions), per the
	// hoisting semantics of spec.md §3.3.
	HoistedVars  []string
	HoistedFuncs []*FunctionDeclaration
}

func (*Program) stmtNode() {}

// ---- Identifiers & literals -------------------------------------------------

type Identifier struct {
	Base
	Name string
}

func (*Identifier) exprNode() {}

// PrivateName is a class-private reference, e.g. `#x`.
type PrivateName struct {
	Base
	Name string // includes leading '#'
}

func (*PrivateName) exprNode() {}

type NullLiteral struct{ Base }

func (*NullLiteral) exprNode() {}

type BooleanLiteral struct {
	Base
	Value bool
}

func (*BooleanLiteral) exprNode() {}

type NumberLiteral struct {
	Base
	Raw   string
	Value float64
}

func (*NumberLiteral) exprNode() {}

type BigIntLiteral struct {
	Base
	Raw string // digits without trailing 'n'
}

func (*BigIntLiteral) exprNode() {}

type StringLiteral struct {
	Base
	Value string
}

func (*StringLiteral) exprNode() {}

// TemplateLiteral is `head${expr}middle${expr}tail`.
type TemplateLiteral struct {
	Base
	Quasis      []TemplateElement // len(Quasis) == len(Expressions)+1
	Expressions []Expression
}

func (*TemplateLiteral) exprNode() {}

type TemplateElement struct {
	Cooked string
	Raw    string
	Tail   bool
}

type TaggedTemplateExpression struct {
	Base
	Tag     Expression
	Quasi   *TemplateLiteral
}

func (*TaggedTemplateExpression) exprNode() {}

type RegExpLiteral struct {
	Base
	Pattern string
	Flags   string
}

func (*RegExpLiteral) exprNode() {}

type ThisExpression struct{ Base }

func (*ThisExpression) exprNode() {}

type SuperExpression struct{ Base }

func (*SuperExpression) exprNode() {}

// ---- Object / array literals ------------------------------------------------

type ArrayLiteral struct {
	Base
	Elements []Expression // nil element = elision; *SpreadElement allowed
}

func (*ArrayLiteral) exprNode() {}

type SpreadElement struct {
	Base
	Argument Expression
}

func (*SpreadElement) exprNode() {}

type ObjectLiteral struct {
	Base
	Properties []ObjectProperty
}

func (*ObjectLiteral) exprNode() {}

type PropertyKind int

const (
	PropInit PropertyKind = iota
	PropGet
	PropSet
	PropMethod
	PropSpread
)

type ObjectProperty struct {
	Kind      PropertyKind
	Key       Expression // Identifier/StringLiteral/NumberLiteral, or computed expr
	Computed  bool
	Value     Expression // for PropSpread, this is the spread argument
	Shorthand bool
}

// ---- Functions ---------------------------------------------------------------

type Param struct {
	Pattern Pattern
	Default Expression // nil if none
	Rest    bool
}

type FunctionExpression struct {
	Base
	Name       *Identifier // nil for anonymous
	Params     []Param
	Body       *BlockStatement
	IsAsync    bool
	IsGenerator bool
	IsStrict   bool // own body begins with "use strict"

	HoistedVars  []string
	HoistedFuncs []*FunctionDeclaration
}

func (*FunctionExpression) exprNode() {}

type FunctionDeclaration struct {
	Base
	Name        *Identifier
	Params      []Param
	Body        *BlockStatement
	IsAsync     bool
	IsGenerator bool
	IsStrict    bool

	HoistedVars  []string
	HoistedFuncs []*FunctionDeclaration
}

func (*FunctionDeclaration) stmtNode() {}

// ArrowFunctionExpression has either a BlockStatement Body or a single
// Expression body (ExprBody != nil, Body == nil), per the concise-body
// production.
type ArrowFunctionExpression struct {
	Base
	Params   []Param
	Body     *BlockStatement
	ExprBody Expression
	IsAsync  bool

	HoistedVars  []string
	HoistedFuncs []*FunctionDeclaration
}

func (*ArrowFunctionExpression) exprNode() {}

// ---- Classes -------------------------------------------------------------

type ClassMemberKind int

const (
	MethodKind ClassMemberKind = iota
	GetterKind
	SetterKind
	FieldKind
	StaticBlockKind
)

type ClassMember struct {
	Kind       ClassMemberKind
	Key        Expression // Identifier, PrivateName, StringLiteral, NumberLiteral, or computed
	Computed   bool
	Static     bool
	Value      Expression // *FunctionExpression for methods; field initializer otherwise (may be nil)
	IsCtor     bool
	Body       *BlockStatement // for StaticBlockKind
}

type ClassExpression struct {
	Base
	Name       *Identifier
	SuperClass Expression
	Members    []ClassMember
}

func (*ClassExpression) exprNode() {}

type ClassDeclaration struct {
	Base
	Name       *Identifier
	SuperClass Expression
	Members    []ClassMember
}

func (*ClassDeclaration) stmtNode() {}

// ---- Patterns (destructuring) ---------------------------------------------

// Pattern is a binding target: Identifier, ArrayPattern, ObjectPattern, or
// AssignmentPattern (default value), or MemberExpression (assignment
// targets only, never binding declarations).
type Pattern interface {
	Node
	patternNode()
}

func (*Identifier) patternNode() {}

type ArrayPattern struct {
	Base
	Elements []Pattern // nil entries are elisions; last may be *RestElement
}

func (*ArrayPattern) patternNode() {}
func (*ArrayPattern) exprNode()    {}

type ObjectPattern struct {
	Base
	Properties []ObjectPatternProperty
	Rest       *RestElement // nil if none
}

func (*ObjectPattern) patternNode() {}
func (*ObjectPattern) exprNode()    {}

type ObjectPatternProperty struct {
	Key      Expression
	Computed bool
	Value    Pattern
}

type RestElement struct {
	Base
	Argument Pattern
}

func (*RestElement) patternNode() {}
func (*RestElement) exprNode()    {}

type AssignmentPattern struct {
	Base
	Target  Pattern
	Default Expression
}

func (*AssignmentPattern) patternNode() {}
func (*AssignmentPattern) exprNode()    {}
