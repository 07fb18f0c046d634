package query

import (
	"fmt"
	"strings"

	"github.com/aidanlsb/outsearch/internal/dates"
)

// Parser parses a token stream into an expression tree. It never fails
// outright: problems are recorded and parsing continues with a best-effort
// tree.
type Parser struct {
	input  string
	tokens []Token
	idx    int
	curr   Token
	errors []*Error
}

// Parse parses a query string. It returns the expression (nil when nothing
// usable was found) and every lexical and syntax error encountered.
func Parse(input string) (Expr, Errors) {
	tokens, lexErrs := Tokenize(input)
	p := &Parser{input: input, tokens: tokens}
	p.errors = append(p.errors, lexErrs...)
	p.curr = p.tokens[0]

	expr := p.parseQuery()
	return expr, p.errors
}

func (p *Parser) advance() {
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	p.curr = p.tokens[p.idx]
}

// lookahead returns the token n positions after curr.
func (p *Parser) lookahead(n int) Token {
	if i := p.idx + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) errorf(pos int, format string, args ...interface{}) {
	p.errors = append(p.errors, &Error{Kind: ErrSyntax, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// parseQuery parses the whole input. Tokens that cannot start an expression
// are reported and skipped; expressions on either side are ANDed together.
func (p *Parser) parseQuery() Expr {
	if p.curr.Type == TokenEOF {
		return nil
	}

	var expr Expr
	for {
		expr = and(expr, p.parseOr())
		if p.curr.Type == TokenEOF {
			return expr
		}
		p.errorf(p.curr.Pos, "unexpected %v", p.curr.Type)
		p.advance()
	}
}

// and joins two possibly-nil expressions.
func and(left, right Expr) Expr {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	default:
		return &BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
}

// or joins two possibly-nil expressions.
func or(left, right Expr) Expr {
	switch {
	case left == nil:
		return right
	case right == nil:
		return left
	default:
		return &BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
}

// consumed runs parse and reports whether it used any tokens. A nil
// expression from a consuming parse is an operand that failed after its
// error was recorded; the caller drops it and keeps going.
func (p *Parser) consumed(parse func() Expr) (Expr, bool) {
	start := p.idx
	x := parse()
	return x, x != nil || p.idx != start
}

// parseOr parses: Or := And (OR And)*
func (p *Parser) parseOr() Expr {
	left, ok := p.consumed(p.parseAnd)
	if !ok {
		return nil
	}

	for p.curr.Type == TokenOr {
		op := p.curr
		p.advance()
		right, ok := p.consumed(p.parseAnd)
		if !ok {
			p.errorf(op.Pos, "expected expression after OR")
			return left
		}
		left = or(left, right)
	}
	return left
}

// parseAnd parses: And := Not (AND Not | Not)*
// Two adjacent operands with no operator are implicitly ANDed.
func (p *Parser) parseAnd() Expr {
	left, ok := p.consumed(p.parseNot)
	if !ok {
		return nil
	}

	for {
		switch {
		case p.curr.Type == TokenAnd:
			op := p.curr
			p.advance()
			right, ok := p.consumed(p.parseNot)
			if !ok {
				p.errorf(op.Pos, "expected expression after AND")
				return left
			}
			left = and(left, right)
		case startsOperand(p.curr.Type):
			right, ok := p.consumed(p.parseNot)
			if !ok {
				return left
			}
			left = and(left, right)
		default:
			return left
		}
	}
}

func startsOperand(t TokenType) bool {
	switch t {
	case TokenNot, TokenLParen, TokenIdent, TokenString, TokenTag:
		return true
	}
	return false
}

// parseNot parses: Not := NOT Not | Primary
func (p *Parser) parseNot() Expr {
	if p.curr.Type != TokenNot {
		return p.parsePrimary()
	}

	op := p.curr
	p.advance()
	x, ok := p.consumed(p.parseNot)
	if !ok {
		p.errorf(op.Pos, "expected expression after NOT")
	}
	if x == nil {
		return nil
	}
	return &NotExpr{X: x, At: op.Pos}
}

// parsePrimary parses: Primary := '(' Or ')' | Predicate
func (p *Parser) parsePrimary() Expr {
	switch p.curr.Type {
	case TokenLParen:
		open := p.curr
		p.advance()
		inner := p.idx
		x := p.parseOr()
		// Skip junk inside the group so the closing paren can still match.
		for p.curr.Type != TokenRParen && p.curr.Type != TokenEOF {
			p.errorf(p.curr.Pos, "unexpected %v", p.curr.Type)
			p.advance()
			x = and(x, p.parseOr())
		}
		empty := p.idx == inner
		if p.curr.Type == TokenRParen {
			p.advance()
		} else {
			p.errorf(open.Pos, "unclosed group")
		}
		if empty {
			p.errorf(open.Pos, "empty group")
		}
		return x
	case TokenTag:
		tok := p.curr
		p.advance()
		return &Predicate{
			Field:      FieldTag,
			Comparator: CompareContains,
			Value:      StringLiteral{Value: lower(tok.Value), Raw: tok.Value},
			At:         tok.Pos,
		}
	case TokenString:
		tok := p.curr
		p.advance()
		return textContains(tok.Value, tok.Pos)
	case TokenIdent:
		if p.lookahead(1).Type.IsComparator() {
			return p.parseFieldPredicate()
		}
		tok := p.curr
		p.advance()
		return textContains(tok.Value, tok.Pos)
	}
	return nil
}

func textContains(raw string, pos int) *Predicate {
	return &Predicate{
		Field:      FieldText,
		Comparator: CompareContains,
		Value:      StringLiteral{Value: lower(raw), Raw: raw},
		At:         pos,
	}
}

// parseFieldPredicate parses: field comparator literal | field ':' '[' range ']'
func (p *Parser) parseFieldPredicate() Expr {
	fieldTok := p.curr
	p.advance()
	cmpTok := p.curr
	p.advance()

	field, known := LookupField(fieldTok.Value)
	if !known {
		return p.parseUnknownField(fieldTok)
	}
	cmp := comparatorFor(cmpTok.Type)

	if cmp == CompareContains && p.curr.Type == TokenLBracket {
		lit, ok := p.parseRange(field)
		if !ok {
			return nil
		}
		return &Predicate{Field: field, Comparator: cmp, Value: lit, At: fieldTok.Pos}
	}

	raw, pos, ok := p.parseValue()
	if !ok {
		p.errorf(cmpTok.Pos, "expected value after %s%s", fieldTok.Value, cmpTok.Value)
		return nil
	}
	lit, ok := p.literal(field, raw, pos)
	if !ok {
		return nil
	}
	return &Predicate{Field: field, Comparator: cmp, Value: lit, At: fieldTok.Pos}
}

// parseUnknownField degrades an unrecognized field into a text search for
// everything the user typed, e.g. "https://example.com" or "note:milk".
func (p *Parser) parseUnknownField(fieldTok Token) Expr {
	p.errorf(fieldTok.Pos, "unknown field %q", fieldTok.Value)

	end := p.tokens[p.idx-1].End
	if p.curr.Type == TokenLBracket {
		for p.curr.Type != TokenRBracket && p.curr.Type != TokenEOF {
			p.advance()
		}
		if p.curr.Type == TokenRBracket {
			end = p.curr.End
			p.advance()
		}
	} else if _, _, ok := p.parseValue(); ok {
		end = p.tokens[p.idx-1].End
	}
	return textContains(p.input[fieldTok.Pos:end], fieldTok.Pos)
}

// parseValue consumes a literal. Adjacent word:word runs are joined so that
// timestamps like 2024-01-01T10:30:00Z need no quoting.
func (p *Parser) parseValue() (string, int, bool) {
	switch p.curr.Type {
	case TokenString:
		tok := p.curr
		p.advance()
		return tok.Value, tok.Pos, true
	case TokenTag:
		tok := p.curr
		p.advance()
		return tok.Value, tok.Pos, true
	case TokenIdent:
		start := p.curr
		end := p.curr.End
		p.advance()
		for p.curr.Type == TokenColon && p.curr.Pos == end {
			next := p.lookahead(1)
			if next.Type != TokenIdent || next.Pos != p.curr.End {
				break
			}
			p.advance()
			end = p.curr.End
			p.advance()
		}
		return p.input[start.Pos:end], start.Pos, true
	}
	return "", p.curr.Pos, false
}

// parseRange parses '[' start? '..' end? ']' with curr on '['.
func (p *Parser) parseRange(field Field) (Literal, bool) {
	open := p.curr
	p.advance()

	var rng RangeLiteral
	var startRaw, endRaw string
	var startPos, endPos int
	var hasStart, hasEnd, reported bool

	if p.curr.Type != TokenRange {
		startRaw, startPos, hasStart = p.parseValue()
	}
	if p.curr.Type == TokenRange {
		p.advance()
		if p.curr.Type != TokenRBracket {
			endRaw, endPos, hasEnd = p.parseValue()
		}
	} else {
		p.errorf(p.curr.Pos, "expected '..' in range")
		reported = true
	}

	p.closeRange(open, reported)

	if !hasStart && !hasEnd {
		p.errorf(open.Pos, "empty range")
		return nil, false
	}

	ok := true
	if hasStart {
		if rng.Start, ok = p.literal(field, startRaw, startPos); !ok {
			return nil, false
		}
	}
	if hasEnd {
		if rng.End, ok = p.literal(field, endRaw, endPos); !ok {
			return nil, false
		}
	}

	// A range compares one way: if either side is a plain string, both are.
	_, startDate := rng.Start.(DateLiteral)
	_, endDate := rng.End.(DateLiteral)
	if hasStart && hasEnd && startDate != endDate {
		rng.Start = StringLiteral{Value: lower(startRaw), Raw: startRaw}
		rng.End = StringLiteral{Value: lower(endRaw), Raw: endRaw}
	}
	return rng, true
}

// closeRange consumes through the ']' of a range opened at open. Stray
// tokens before it are skipped, and reported unless the range already
// produced an error. A range with no ']' ahead is unclosed.
func (p *Parser) closeRange(open Token, reported bool) {
	if p.curr.Type == TokenRBracket {
		p.advance()
		return
	}
	for i := p.idx; i < len(p.tokens); i++ {
		if p.tokens[i].Type != TokenRBracket {
			continue
		}
		if !reported {
			p.errorf(p.curr.Pos, "unexpected %v in range", p.curr.Type)
		}
		for p.curr.Type != TokenRBracket {
			p.advance()
		}
		p.advance()
		return
	}
	p.errorf(open.Pos, "unclosed range")
}

// literal converts raw value text for field. Date fields parse dates; a
// value that looks like a date but does not parse is an error. Everything
// else is folded to lower case.
func (p *Parser) literal(field Field, raw string, pos int) (Literal, bool) {
	if !field.IsDate() {
		return StringLiteral{Value: lower(raw), Raw: raw}, true
	}

	trimmed := strings.TrimSpace(raw)
	if dates.IsValidDate(trimmed) {
		ms, _ := dates.ParseMillis(trimmed)
		return DateLiteral{Millis: ms, Precision: PrecisionDay, Raw: raw}, true
	}
	if t, err := dates.ParseDatetime(trimmed); err == nil {
		return DateLiteral{Millis: t.UnixMilli(), Precision: PrecisionInstant, Raw: raw}, true
	}
	if dates.LooksLikeDate(trimmed) {
		p.errorf(pos, "invalid date %q", raw)
		return nil, false
	}
	return StringLiteral{Value: lower(raw), Raw: raw}, true
}

func lower(s string) string {
	return strings.ToLower(s)
}
