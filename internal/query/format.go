package query

import (
	"strings"
	"unicode"
)

// Format renders an expression in canonical query syntax. Binary expressions
// are fully parenthesized, so Parse(Format(e)) reproduces e.
func Format(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case nil:
	case *BinaryExpr:
		sb.WriteByte('(')
		writeExpr(sb, e.Left)
		sb.WriteByte(' ')
		sb.WriteString(e.Op.String())
		sb.WriteByte(' ')
		writeExpr(sb, e.Right)
		sb.WriteByte(')')
	case *NotExpr:
		sb.WriteString("NOT ")
		writeExpr(sb, e.X)
	case *Predicate:
		sb.WriteString(e.Field.String())
		sb.WriteString(e.Comparator.String())
		writeLiteral(sb, e.Value)
	}
}

func writeLiteral(sb *strings.Builder, lit Literal) {
	switch lit := lit.(type) {
	case StringLiteral:
		sb.WriteString(quoteIfNeeded(lit.Value))
	case DateLiteral:
		sb.WriteString(quoteIfNeeded(strings.TrimSpace(lit.Raw)))
	case RangeLiteral:
		sb.WriteByte('[')
		if lit.Start != nil {
			writeLiteral(sb, lit.Start)
		}
		sb.WriteString("..")
		if lit.End != nil {
			writeLiteral(sb, lit.End)
		}
		sb.WriteByte(']')
	}
}

func quoteIfNeeded(s string) string {
	if s == "" || needsQuoting(s) {
		r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
		return `"` + r.Replace(s) + `"`
	}
	return s
}

func needsQuoting(s string) bool {
	switch strings.ToUpper(s) {
	case "AND", "OR", "NOT":
		return true
	}
	if strings.HasPrefix(s, "#") || strings.Contains(s, "..") || strings.Contains(s, "!=") {
		return true
	}
	return strings.ContainsFunc(s, func(r rune) bool {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return true
		}
		switch r {
		case '(', ')', '[', ']', ':', '=', '>', '<', '"', '!':
			return true
		}
		return false
	})
}
