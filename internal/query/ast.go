// Package query implements the outline search language: a tokenizer, a
// recursive-descent parser producing a boolean expression tree, and a
// compiler that turns predicates into normalized filters.
//
// Syntax summary:
//
//	hello                  text contains "hello"
//	"project plan"         text contains the phrase
//	#urgent                any tag equals "urgent"
//	field:value            field-specific match (text, path, tag, type, created, updated)
//	field=value field!=value field>value field>=value field<value field<=value
//	created:[2024-01-01..2024-12-31]   inclusive range; either side may be omitted
//	a b, a AND b           conjunction
//	a OR b                 disjunction
//	NOT a                  negation
//	( ... )                grouping
package query

// Expr is a node of the boolean expression tree.
type Expr interface {
	exprNode()
	// Pos is the byte offset where the expression starts in the query.
	Pos() int
}

// BinaryOp is a boolean connective.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpOr
)

func (op BinaryOp) String() string {
	if op == OpOr {
		return "OR"
	}
	return "AND"
}

// BinaryExpr combines two expressions with AND or OR.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) exprNode()  {}
func (b *BinaryExpr) Pos() int { return b.Left.Pos() }

// NotExpr negates an expression.
type NotExpr struct {
	X  Expr
	At int
}

func (*NotExpr) exprNode()  {}
func (n *NotExpr) Pos() int { return n.At }

// Field is a searchable document field.
type Field int

const (
	FieldText Field = iota
	FieldPath
	FieldTag
	FieldType
	FieldCreated
	FieldUpdated
)

var fieldNames = map[string]Field{
	"text":     FieldText,
	"path":     FieldPath,
	"tag":      FieldTag,
	"tags":     FieldTag,
	"type":     FieldType,
	"created":  FieldCreated,
	"updated":  FieldUpdated,
	"modified": FieldUpdated,
}

// LookupField resolves a field name or alias, case-insensitively.
func LookupField(name string) (Field, bool) {
	f, ok := fieldNames[lower(name)]
	return f, ok
}

func (f Field) String() string {
	switch f {
	case FieldPath:
		return "path"
	case FieldTag:
		return "tag"
	case FieldType:
		return "type"
	case FieldCreated:
		return "created"
	case FieldUpdated:
		return "updated"
	default:
		return "text"
	}
}

// IsDate reports whether the field holds a timestamp.
func (f Field) IsDate() bool {
	return f == FieldCreated || f == FieldUpdated
}

// Comparator is the operator between a field and its literal.
type Comparator int

const (
	CompareContains Comparator = iota // :
	CompareEq                         // =
	CompareNeq                        // !=
	CompareGt                         // >
	CompareGte                        // >=
	CompareLt                         // <
	CompareLte                        // <=
)

func (c Comparator) String() string {
	switch c {
	case CompareEq:
		return "="
	case CompareNeq:
		return "!="
	case CompareGt:
		return ">"
	case CompareGte:
		return ">="
	case CompareLt:
		return "<"
	case CompareLte:
		return "<="
	default:
		return ":"
	}
}

func comparatorFor(t TokenType) Comparator {
	switch t {
	case TokenEq:
		return CompareEq
	case TokenNeq:
		return CompareNeq
	case TokenGt:
		return CompareGt
	case TokenGte:
		return CompareGte
	case TokenLt:
		return CompareLt
	case TokenLte:
		return CompareLte
	default:
		return CompareContains
	}
}

// Literal is the value side of a predicate. The set of implementations is
// closed: StringLiteral, DateLiteral, RangeLiteral.
type Literal interface {
	literalNode()
}

// StringLiteral is a lower-cased string value.
type StringLiteral struct {
	Value string // lower-cased
	Raw   string // as written
}

func (StringLiteral) literalNode() {}

// DatePrecision records how much of a timestamp a date literal pins down.
type DatePrecision int

const (
	PrecisionDay     DatePrecision = iota // YYYY-MM-DD: covers the whole UTC day
	PrecisionInstant                      // full timestamp
)

// DateLiteral is a parsed date or datetime.
type DateLiteral struct {
	Millis    int64
	Precision DatePrecision
	Raw       string
}

func (DateLiteral) literalNode() {}

// RangeLiteral is an inclusive range. Either bound may be nil, never both.
// Bounds are StringLiteral or DateLiteral.
type RangeLiteral struct {
	Start Literal
	End   Literal
}

func (RangeLiteral) literalNode() {}

// Predicate is a single field test.
type Predicate struct {
	Field      Field
	Comparator Comparator
	Value      Literal
	At         int
}

func (*Predicate) exprNode()  {}
func (p *Predicate) Pos() int { return p.At }
