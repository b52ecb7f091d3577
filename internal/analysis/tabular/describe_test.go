package tabular

import (
	"math"
	"strings"
	"testing"
)

func TestDescribeColumn(t *testing.T) {
	ds := mustParse(t, "a,b\n1,2.5\n2,3.5\n3,\n")

	a := DescribeColumn(ds, 0)
	if a.Count != 3 || a.Mean != 2 || a.Std != 1 || a.Min != 1 || a.Max != 3 {
		t.Fatalf("unexpected stats for a: %+v", a)
	}
	if a.Q1 != 1.5 || a.Q2 != 2 || a.Q3 != 2.5 {
		t.Fatalf("unexpected quartiles for a: %+v", a)
	}

	b := DescribeColumn(ds, 1)
	if b.Count != 2 || b.Mean != 3 || b.Q1 != 2.75 || b.Q3 != 3.25 {
		t.Fatalf("unexpected stats for b: %+v", b)
	}
	if math.Abs(b.Std-math.Sqrt(0.5)) > 1e-12 {
		t.Fatalf("unexpected std for b: %v", b.Std)
	}
}

func TestDescribeColumnSingleValue(t *testing.T) {
	ds := mustParse(t, "a\n4\n")

	s := DescribeColumn(ds, 0)
	if !math.IsNaN(s.Std) {
		t.Fatalf("expected NaN std for a single value, got %v", s.Std)
	}
	if s.Q1 != 4 || s.Max != 4 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestDescribeSkipsNonNumericColumns(t *testing.T) {
	ds := mustParse(t, "name,age\nann,30\nbob,40\n")

	table := Describe(ds)
	if len(table.Header) != 1 || table.Header[0] != "age" {
		t.Fatalf("expected only age column, got %v", table.Header)
	}
	if table.Rows[1][0] != "35.000000" {
		t.Fatalf("expected mean 35.000000, got %s", table.Rows[1][0])
	}
}

func TestDescribeObjectsWhenNothingNumeric(t *testing.T) {
	ds := mustParse(t, "city\nrome\nparis\nrome\n\n")

	table := Describe(ds)
	if strings.Join(table.Index, ",") != "count,unique,top,freq" {
		t.Fatalf("unexpected index: %v", table.Index)
	}
	got := []string{table.Rows[0][0], table.Rows[1][0], table.Rows[2][0], table.Rows[3][0]}
	if strings.Join(got, ",") != "3,2,rome,2" {
		t.Fatalf("unexpected object stats: %v", got)
	}
}

func TestHeadRendersMissingAsNaN(t *testing.T) {
	ds := mustParse(t, "a,b\n1,\n2,x\n3,y\n")

	head := Head(ds, 2)
	if len(head.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(head.Rows))
	}
	if head.Rows[0][1] != "NaN" {
		t.Fatalf("expected NaN, got %q", head.Rows[0][1])
	}
	if got := Head(ds, 10); len(got.Rows) != 3 {
		t.Fatalf("expected head to be capped at 3 rows, got %d", len(got.Rows))
	}
}

func TestTableString(t *testing.T) {
	table := Table{
		Header: []string{"a", "bb"},
		Index:  []string{"0", "10"},
		Rows:   [][]string{{"1", "x"}, {"22", "yyy"}},
	}

	want := "     a   bb\n0    1    x\n10  22  yyy"
	if got := table.String(); got != want {
		t.Fatalf("unexpected table:\n%s\nwant:\n%s", got, want)
	}
}

func TestSummarizeReportsShape(t *testing.T) {
	ds := mustParse(t, "x,y\n1,2\n3,4\n5,6\n")

	summary := Summarize(ds)
	for _, want := range []string{
		"File 'sample.csv' loaded successfully.",
		"Shape: 3 rows, 2 columns",
		"Columns: x, y",
		"x    int64",
		"Summary Statistics:",
		"count",
	} {
		if !strings.Contains(summary, want) {
			t.Fatalf("summary missing %q:\n%s", want, summary)
		}
	}
}
