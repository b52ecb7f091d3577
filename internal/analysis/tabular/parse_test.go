package tabular

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/zhouzirui/datachat/internal/model/dataset"
)

func mustParse(t *testing.T, src string) *dataset.Dataset {
	t.Helper()
	ds, err := Parse(strings.NewReader(src), "sample.csv")
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	return ds
}

func TestParseInfersKinds(t *testing.T) {
	ds := mustParse(t, "id,price,label,active,score\n1,2.5,a,true,7\n2,3,b,False,\n3,4.25,c,TRUE,9\n")

	if ds.Rows() != 3 || ds.Cols() != 5 {
		t.Fatalf("expected 3x5, got %dx%d", ds.Rows(), ds.Cols())
	}
	want := []dataset.Kind{dataset.KindInt, dataset.KindFloat, dataset.KindObject, dataset.KindBool, dataset.KindFloat}
	for i, c := range ds.Columns {
		if c.Kind != want[i] {
			t.Fatalf("column %s: expected %s, got %s", c.Name, want[i], c.Kind)
		}
	}
	if !ds.IsMissing(1, 4) {
		t.Fatalf("expected score of row 1 to be missing")
	}
	if !math.IsNaN(ds.Value(1, 4)) {
		t.Fatalf("expected NaN for missing numeric cell, got %v", ds.Value(1, 4))
	}
	if ds.Value(2, 1) != 4.25 {
		t.Fatalf("expected 4.25, got %v", ds.Value(2, 1))
	}
}

func TestParseMissingTokensAndShortRows(t *testing.T) {
	ds := mustParse(t, "a,b,c\n1,NA,x\n2\n")

	if ds.Rows() != 2 {
		t.Fatalf("expected 2 rows, got %d", ds.Rows())
	}
	if !ds.IsMissing(0, 1) || !ds.IsMissing(1, 1) || !ds.IsMissing(1, 2) {
		t.Fatalf("expected NA and padded cells to be missing")
	}
	if ds.Columns[1].Kind != dataset.KindFloat {
		t.Fatalf("expected all-missing column to be float64, got %s", ds.Columns[1].Kind)
	}
}

func TestParseHeaderNames(t *testing.T) {
	ds := mustParse(t, "a,,a,a\n1,2,3,4\n")

	got := strings.Join(ds.ColumnNames(), "|")
	if got != "a|Unnamed: 1|a.1|a.2" {
		t.Fatalf("unexpected header names: %s", got)
	}
}

func TestParseHeaderOnly(t *testing.T) {
	ds := mustParse(t, "x,y\n")

	if ds.Rows() != 0 || ds.Cols() != 2 {
		t.Fatalf("expected 0x2, got %dx%d", ds.Rows(), ds.Cols())
	}
	if ds.Columns[0].Kind != dataset.KindObject {
		t.Fatalf("expected object kind without rows, got %s", ds.Columns[0].Kind)
	}
}

func TestParseStripsBOM(t *testing.T) {
	ds := mustParse(t, "\ufeffname,value\nx,1\n")

	if ds.Columns[0].Name != "name" {
		t.Fatalf("expected BOM to be stripped, got %q", ds.Columns[0].Name)
	}
}

func TestParseRejectsEmptyInput(t *testing.T) {
	for _, src := range []string{"", "   \n\n"} {
		if _, err := Parse(strings.NewReader(src), "empty.csv"); !errors.Is(err, ErrNoColumns) {
			t.Fatalf("expected ErrNoColumns for %q, got %v", src, err)
		}
	}
}

func TestParseRejectsInvalidUTF8(t *testing.T) {
	if _, err := Parse(strings.NewReader("a,b\n\xff\xfe,1\n"), "bad.csv"); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("expected ErrInvalidEncoding, got %v", err)
	}
}

func TestParseRejectsWideRows(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b\n1,2\n3,4,5\n"), "wide.csv")

	var fieldErr *FieldCountError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("expected FieldCountError, got %v", err)
	}
	if fieldErr.Line != 3 || fieldErr.Expected != 2 || fieldErr.Saw != 3 {
		t.Fatalf("unexpected field count error: %+v", fieldErr)
	}
}

func TestParseRejectsBrokenQuotes(t *testing.T) {
	if _, err := Parse(strings.NewReader("a,b\n\"unterminated,1\n"), "quote.csv"); err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}
