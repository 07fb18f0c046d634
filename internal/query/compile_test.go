package query

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func compileOne(t *testing.T, input string) Filter {
	t.Helper()
	expr := mustParse(t, input)
	pred, ok := expr.(*Predicate)
	if !ok {
		t.Fatalf("Parse(%q) = %T, want *Predicate", input, expr)
	}
	return Compile(pred)
}

func day(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestCompile(t *testing.T) {
	instant := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC).UnixMilli()

	tests := []struct {
		input string
		want  Filter
	}{
		{"hello", &TextFilter{Comparator: CompareContains, Value: "hello"}},
		{"text=Buy Milk", &TextFilter{Comparator: CompareEq, Value: "buy"}},
		{"#Work", &TagFilter{Comparator: CompareContains, Value: "work"}},
		{"tag!=done", &TagFilter{Comparator: CompareNeq, Value: "done"}},
		{"type:todo", &TypeFilter{Comparator: CompareContains, Value: "todo"}},
		{"path:plan", &PathFilter{Comparator: CompareContains, Value: "plan"}},
		{
			"path:Work/ Q3 /Plan",
			&PathFilter{Comparator: CompareContains, Value: "work", Segments: []string{"work"}},
		},
		{
			`path:"Work/ Q3 /Plan"`,
			&PathFilter{Comparator: CompareContains, Value: "work/q3/plan", Segments: []string{"work", "q3", "plan"}},
		},
		{
			"created:2024-01-01",
			&DateFilter{Field: FieldCreated, Comparator: CompareContains, Start: day(2024, 1, 1), End: day(2024, 1, 2)},
		},
		{
			"updated>2024-01-01T10:30:00Z",
			&DateFilter{Field: FieldUpdated, Comparator: CompareGt, Start: instant, End: instant + 1},
		},
		{
			"created:2024-03",
			&DateStringFilter{Field: FieldCreated, Comparator: CompareContains, Value: "2024-03"},
		},
		{
			"updated>=2024-03-0t",
			&DateStringFilter{Field: FieldUpdated, Comparator: CompareGte, Value: "2024-03-0T"},
		},
		{
			"created:[2024-01-01..2024-12-31]",
			&RangeFilter{
				Field: FieldCreated,
				Kind:  KindDate,
				Lower: &Bound{Millis: day(2024, 1, 1)},
				Upper: &Bound{Millis: day(2025, 1, 1)},
			},
		},
		{
			"updated:[..2024-06-30]",
			&RangeFilter{Field: FieldUpdated, Kind: KindDate, Upper: &Bound{Millis: day(2024, 7, 1)}},
		},
		{
			"text:[Apple..Mango]",
			&RangeFilter{Field: FieldText, Kind: KindString, Lower: &Bound{Value: "apple"}, Upper: &Bound{Value: "mango"}},
		},
		{
			"created:[2024-01..2024-12-31]",
			&RangeFilter{Field: FieldCreated, Kind: KindString, Lower: &Bound{Value: "2024-01"}, Upper: &Bound{Value: "2024-12-31"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			// Multi-word inputs parse as a conjunction; compile the first predicate.
			expr := mustParse(t, tt.input)
			for {
				bin, ok := expr.(*BinaryExpr)
				if !ok {
					break
				}
				expr = bin.Left
			}
			got := Compile(expr.(*Predicate))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Compile(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestCompileDateOnTextField(t *testing.T) {
	f := compileOne(t, "text:2024-01-01")
	want := &TextFilter{Comparator: CompareContains, Value: "2024-01-01"}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
