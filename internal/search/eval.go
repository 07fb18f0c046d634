package search

import (
	"slices"
	"strings"

	"github.com/aidanlsb/outsearch/internal/index"
	"github.com/aidanlsb/outsearch/internal/query"
)

// evaluator matches one expression against documents. Filters are compiled
// on first use and reused for every document in the run.
type evaluator struct {
	filters map[*query.Predicate]query.Filter
}

func newEvaluator() *evaluator {
	return &evaluator{filters: make(map[*query.Predicate]query.Filter)}
}

func (ev *evaluator) filter(p *query.Predicate) query.Filter {
	f, ok := ev.filters[p]
	if !ok {
		f = query.Compile(p)
		ev.filters[p] = f
	}
	return f
}

func (ev *evaluator) match(e query.Expr, doc *index.Document) bool {
	switch e := e.(type) {
	case *query.BinaryExpr:
		if e.Op == query.OpOr {
			return ev.match(e.Left, doc) || ev.match(e.Right, doc)
		}
		return ev.match(e.Left, doc) && ev.match(e.Right, doc)
	case *query.NotExpr:
		return !ev.match(e.X, doc)
	case *query.Predicate:
		return matchFilter(ev.filter(e), doc)
	}
	return false
}

// matchFilter applies a compiled filter to a document. Anything it cannot
// make sense of is a non-match.
func matchFilter(f query.Filter, doc *index.Document) bool {
	switch f := f.(type) {
	case *query.TextFilter:
		return compareString(f.Comparator, doc.TextLower, f.Value)
	case *query.PathFilter:
		return matchPath(f, doc)
	case *query.TypeFilter:
		return matchAny(f.Comparator, doc.Types, f.Value, compareString)
	case *query.TagFilter:
		return matchAny(f.Comparator, doc.TagsLower, f.Value, compareTag)
	case *query.DateFilter:
		return compareDate(f.Comparator, dateValue(f.Field, doc), f.Start, f.End)
	case *query.DateStringFilter:
		return compareISO(f.Comparator, isoValue(f.Field, doc), f.Value)
	case *query.RangeFilter:
		return matchRange(f, doc)
	}
	return false
}

// matchPath compares a slash-delimited literal segment by segment, so a
// "/" typed inside a node's text is not mistaken for a breadcrumb boundary.
// Plain literals and ordering comparators use the joined path.
func matchPath(f *query.PathFilter, doc *index.Document) bool {
	if len(f.Segments) == 0 {
		return compareString(f.Comparator, doc.PathLower, f.Value)
	}
	switch f.Comparator {
	case query.CompareContains:
		return containsSegments(doc.PathSegmentsLower, f.Segments)
	case query.CompareEq:
		return slices.Equal(doc.PathSegmentsLower, f.Segments)
	case query.CompareNeq:
		return !slices.Equal(doc.PathSegmentsLower, f.Segments)
	}
	return compareString(f.Comparator, doc.PathLower, f.Value)
}

// containsSegments reports whether want occurs as a run of path segments.
// The first segment may end a longer one and the last may begin one, the
// way a substring of the joined path would.
func containsSegments(path, want []string) bool {
	n := len(want)
	if n == 1 {
		return slices.ContainsFunc(path, func(seg string) bool { return strings.Contains(seg, want[0]) })
	}
	for i := 0; i+n <= len(path); i++ {
		if !strings.HasSuffix(path[i], want[0]) || !strings.HasPrefix(path[i+n-1], want[n-1]) {
			continue
		}
		if slices.Equal(path[i+1:i+n-1], want[1:n-1]) {
			return true
		}
	}
	return false
}

// matchAny gives list fields any-of semantics: != holds only when no element
// equals the value, everything else holds when some element satisfies it.
func matchAny(cmp query.Comparator, values []string, want string, fn func(query.Comparator, string, string) bool) bool {
	if cmp == query.CompareNeq {
		for _, v := range values {
			if v == want {
				return false
			}
		}
		return true
	}
	for _, v := range values {
		if fn(cmp, v, want) {
			return true
		}
	}
	return false
}

// compareTag is compareString with ':' meaning exact match, so tag:jo does
// not match #john.
func compareTag(cmp query.Comparator, v, want string) bool {
	if cmp == query.CompareContains {
		return v == want
	}
	return compareString(cmp, v, want)
}

func compareString(cmp query.Comparator, v, want string) bool {
	switch cmp {
	case query.CompareContains:
		return strings.Contains(v, want)
	case query.CompareEq:
		return v == want
	case query.CompareNeq:
		return v != want
	case query.CompareGt:
		return v > want
	case query.CompareGte:
		return v >= want
	case query.CompareLt:
		return v < want
	case query.CompareLte:
		return v <= want
	}
	return false
}

// compareDate tests v against the window [start, end) a date literal
// covers, so created:2024-01-01 is the whole day and created<=2024-01-01
// includes it.
func compareDate(cmp query.Comparator, v, start, end int64) bool {
	in := v >= start && v < end
	switch cmp {
	case query.CompareContains, query.CompareEq:
		return in
	case query.CompareNeq:
		return !in
	case query.CompareGt:
		return v >= end
	case query.CompareGte:
		return v >= start
	case query.CompareLt:
		return v < start
	case query.CompareLte:
		return v < end
	}
	return false
}

// compareISO compares an ISO projection with a partial date string. A value
// the string is a prefix of counts as equal to it for ordering, so
// updated<=2024-03 includes all of March.
func compareISO(cmp query.Comparator, iso, want string) bool {
	prefix := strings.HasPrefix(iso, want)
	switch cmp {
	case query.CompareContains:
		return prefix
	case query.CompareEq:
		return iso == want
	case query.CompareNeq:
		return iso != want
	case query.CompareGt:
		return iso > want && !prefix
	case query.CompareGte:
		return iso >= want
	case query.CompareLt:
		return iso < want
	case query.CompareLte:
		return iso <= want || prefix
	}
	return false
}

func matchRange(f *query.RangeFilter, doc *index.Document) bool {
	if f.Lower == nil && f.Upper == nil {
		return false
	}

	if f.Kind == query.KindDate {
		v := dateValue(f.Field, doc)
		if f.Lower != nil && v < f.Lower.Millis {
			return false
		}
		if f.Upper != nil && v >= f.Upper.Millis {
			return false
		}
		return true
	}

	// A partial date upper bound covers everything it is a prefix of, so
	// created:[..2024-03] includes all of March. Other strings compare as is.
	isoField := f.Field == query.FieldCreated || f.Field == query.FieldUpdated
	inRange := func(v string) bool {
		if f.Lower != nil && v < f.Lower.Value {
			return false
		}
		if f.Upper != nil && v > f.Upper.Value && !(isoField && strings.HasPrefix(v, f.Upper.Value)) {
			return false
		}
		return true
	}

	switch f.Field {
	case query.FieldPath:
		return inRange(doc.PathLower)
	case query.FieldTag:
		return anyOf(doc.TagsLower, inRange)
	case query.FieldType:
		return anyOf(doc.Types, inRange)
	case query.FieldCreated, query.FieldUpdated:
		return inRange(isoValue(f.Field, doc))
	default:
		return inRange(doc.TextLower)
	}
}

func anyOf(values []string, fn func(string) bool) bool {
	for _, v := range values {
		if fn(v) {
			return true
		}
	}
	return false
}

func dateValue(field query.Field, doc *index.Document) int64 {
	if field == query.FieldUpdated {
		return doc.UpdatedAt
	}
	return doc.CreatedAt
}

func isoValue(field query.Field, doc *index.Document) string {
	if field == query.FieldUpdated {
		return doc.UpdatedISO
	}
	return doc.CreatedISO
}
