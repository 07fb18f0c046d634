package query

import (
	"strings"
)

const millisPerDay = 24 * 60 * 60 * 1000

// Filter is a compiled predicate, normalized once per query so evaluation
// never re-parses or re-cases values. Implementations: *TextFilter,
// *TypeFilter, *TagFilter, *PathFilter, *DateFilter, *DateStringFilter,
// *RangeFilter.
type Filter interface {
	filterNode()
}

// TextFilter compares the lower-cased node text.
type TextFilter struct {
	Comparator Comparator
	Value      string
}

// TypeFilter compares against each derived type tag (any-of).
type TypeFilter struct {
	Comparator Comparator
	Value      string
}

// TagFilter compares against each tag (any-of, exact for : and =).
type TagFilter struct {
	Comparator Comparator
	Value      string
}

// PathFilter compares the normalized breadcrumb. Segments is set when the
// literal was slash-delimited; Value is then the segments rejoined with "/".
type PathFilter struct {
	Comparator Comparator
	Value      string
	Segments   []string
}

// DateFilter compares a timestamp against the half-open window
// [Start, End) covered by a date literal: a whole day for calendar dates,
// a single millisecond for full timestamps.
type DateFilter struct {
	Field      Field
	Comparator Comparator
	Start      int64
	End        int64
}

// DateStringFilter compares the ISO projection of a timestamp with a bare
// string, e.g. created:2024-03 for a month prefix.
type DateStringFilter struct {
	Field      Field
	Comparator Comparator
	Value      string
}

// ValueKind tells a RangeFilter how to compare.
type ValueKind int

const (
	KindString ValueKind = iota
	KindDate
)

func (k ValueKind) String() string {
	if k == KindDate {
		return "date"
	}
	return "string"
}

// Bound is one side of a range. Date bounds use Millis: the lower bound is
// inclusive, the upper bound is the exclusive end of the literal's window.
// String bounds use Value.
type Bound struct {
	Millis int64
	Value  string
}

// RangeFilter tests a field against optional inclusive bounds. A filter with
// neither bound never matches.
type RangeFilter struct {
	Field Field
	Kind  ValueKind
	Lower *Bound
	Upper *Bound
}

func (*TextFilter) filterNode()       {}
func (*TypeFilter) filterNode()       {}
func (*TagFilter) filterNode()        {}
func (*PathFilter) filterNode()       {}
func (*DateFilter) filterNode()       {}
func (*DateStringFilter) filterNode() {}
func (*RangeFilter) filterNode()      {}

// Compile turns a predicate into a Filter.
func Compile(p *Predicate) Filter {
	switch lit := p.Value.(type) {
	case RangeLiteral:
		return compileRange(p.Field, lit)
	case DateLiteral:
		if p.Field.IsDate() {
			start, end := dateWindow(lit)
			return &DateFilter{Field: p.Field, Comparator: p.Comparator, Start: start, End: end}
		}
		return compileString(p.Field, p.Comparator, lower(strings.TrimSpace(lit.Raw)))
	case StringLiteral:
		return compileString(p.Field, p.Comparator, lit.Value)
	}
	return &RangeFilter{Field: p.Field}
}

func compileString(field Field, cmp Comparator, value string) Filter {
	switch field {
	case FieldPath:
		return compilePath(cmp, value)
	case FieldTag:
		return &TagFilter{Comparator: cmp, Value: value}
	case FieldType:
		return &TypeFilter{Comparator: cmp, Value: value}
	case FieldCreated, FieldUpdated:
		return &DateStringFilter{Field: field, Comparator: cmp, Value: isoCase(value)}
	default:
		return &TextFilter{Comparator: cmp, Value: value}
	}
}

func compilePath(cmp Comparator, value string) *PathFilter {
	if !strings.Contains(value, "/") {
		return &PathFilter{Comparator: cmp, Value: value}
	}
	var segments []string
	for _, seg := range strings.Split(value, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			segments = append(segments, seg)
		}
	}
	return &PathFilter{Comparator: cmp, Value: strings.Join(segments, "/"), Segments: segments}
}

func compileRange(field Field, lit RangeLiteral) *RangeFilter {
	f := &RangeFilter{Field: field, Kind: KindString}
	if _, ok := lit.Start.(DateLiteral); ok {
		f.Kind = KindDate
	}
	if _, ok := lit.End.(DateLiteral); ok {
		f.Kind = KindDate
	}

	if lit.Start != nil {
		f.Lower = rangeBound(field, lit.Start, false)
	}
	if lit.End != nil {
		f.Upper = rangeBound(field, lit.End, true)
	}
	return f
}

func rangeBound(field Field, lit Literal, upper bool) *Bound {
	switch lit := lit.(type) {
	case DateLiteral:
		start, end := dateWindow(lit)
		if upper {
			return &Bound{Millis: end}
		}
		return &Bound{Millis: start}
	case StringLiteral:
		if field.IsDate() {
			return &Bound{Value: isoCase(lit.Value)}
		}
		return &Bound{Value: lit.Value}
	}
	return nil
}

func dateWindow(lit DateLiteral) (int64, int64) {
	if lit.Precision == PrecisionDay {
		return lit.Millis, lit.Millis + millisPerDay
	}
	return lit.Millis, lit.Millis + 1
}

// isoCase matches a lower-cased literal to the index's ISO projection, whose
// only letters are the upper-case 'T' and 'Z'.
func isoCase(s string) string {
	return strings.ToUpper(s)
}
