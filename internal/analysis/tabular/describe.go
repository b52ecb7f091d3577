package tabular

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/zhouzirui/datachat/internal/model/dataset"
)

var numericStats = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

var objectStats = []string{"count", "unique", "top", "freq"}

// NumSummary holds the descriptive statistics of one numeric column.
type NumSummary struct {
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q1    float64
	Q2    float64
	Q3    float64
	Max   float64
}

// DescribeColumn computes statistics over the non-missing values of a
// numeric column. Undefined statistics are NaN.
func DescribeColumn(ds *dataset.Dataset, col int) NumSummary {
	vals := make([]float64, 0, ds.Rows())
	for i := 0; i < ds.Rows(); i++ {
		if ds.IsMissing(i, col) {
			continue
		}
		vals = append(vals, ds.Value(i, col))
	}

	nan := math.NaN()
	s := NumSummary{Count: len(vals), Mean: nan, Std: nan, Min: nan, Q1: nan, Q2: nan, Q3: nan, Max: nan}
	if len(vals) == 0 {
		return s
	}

	// Welford keeps the variance stable for large magnitudes.
	var mean, m2 float64
	for i, x := range vals {
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	s.Mean = mean
	if len(vals) > 1 {
		s.Std = math.Sqrt(m2 / float64(len(vals)-1))
	}

	sort.Float64s(vals)
	s.Min = vals[0]
	s.Max = vals[len(vals)-1]
	s.Q1 = quantile(vals, 0.25)
	s.Q2 = quantile(vals, 0.5)
	s.Q3 = quantile(vals, 0.75)
	return s
}

// Describe builds the statistics table: one column per numeric column, or,
// when the dataset has no numeric column, count/unique/top/freq over every column.
func Describe(ds *dataset.Dataset) Table {
	var numCols []int
	for j, c := range ds.Columns {
		if c.Kind.Numeric() {
			numCols = append(numCols, j)
		}
	}
	if len(numCols) == 0 {
		return describeObjects(ds)
	}

	t := Table{Index: numericStats, Rows: make([][]string, len(numericStats))}
	for _, j := range numCols {
		t.Header = append(t.Header, ds.Columns[j].Name)
		s := DescribeColumn(ds, j)
		for r, v := range []float64{float64(s.Count), s.Mean, s.Std, s.Min, s.Q1, s.Q2, s.Q3, s.Max} {
			t.Rows[r] = append(t.Rows[r], formatStat(v))
		}
	}
	return t
}

func describeObjects(ds *dataset.Dataset) Table {
	t := Table{Index: objectStats, Rows: make([][]string, len(objectStats))}
	for j, c := range ds.Columns {
		t.Header = append(t.Header, c.Name)

		counts := make(map[string]int)
		var order []string
		present := 0
		for i := 0; i < ds.Rows(); i++ {
			if ds.IsMissing(i, j) {
				continue
			}
			present++
			v := ds.Cells[i][j]
			if counts[v] == 0 {
				order = append(order, v)
			}
			counts[v]++
		}

		top, freq := "NaN", "NaN"
		best := 0
		for _, v := range order {
			if counts[v] > best {
				best = counts[v]
				top = v
			}
		}
		if best > 0 {
			freq = strconv.Itoa(best)
		}
		t.Rows[0] = append(t.Rows[0], strconv.Itoa(present))
		t.Rows[1] = append(t.Rows[1], strconv.Itoa(len(order)))
		t.Rows[2] = append(t.Rows[2], top)
		t.Rows[3] = append(t.Rows[3], freq)
	}
	return t
}

// Head renders the first n rows with a positional index.
func Head(ds *dataset.Dataset, n int) Table {
	if n > ds.Rows() {
		n = ds.Rows()
	}
	if n < 0 {
		n = 0
	}
	t := Table{Header: ds.ColumnNames(), Index: make([]string, n), Rows: make([][]string, n)}
	for i := 0; i < n; i++ {
		t.Index[i] = strconv.Itoa(i)
		row := make([]string, ds.Cols())
		for j := range row {
			if ds.IsMissing(i, j) {
				row[j] = "NaN"
				continue
			}
			row[j] = ds.Cells[i][j]
		}
		t.Rows[i] = row
	}
	return t
}

// Kinds lists every column next to its inferred kind.
func Kinds(ds *dataset.Dataset) Table {
	t := Table{Index: ds.ColumnNames(), Rows: make([][]string, ds.Cols()), Gap: 4}
	for j, c := range ds.Columns {
		t.Rows[j] = []string{string(c.Kind)}
	}
	return t
}

// Summarize produces the cached dataset summary sent as model context.
func Summarize(ds *dataset.Dataset) string {
	return fmt.Sprintf(
		"File '%s' loaded successfully.\n\nShape: %d rows, %d columns\n\nColumns: %s\n\nData Types:\n%s\n\nSummary Statistics:\n%s",
		ds.Name,
		ds.Rows(),
		ds.Cols(),
		strings.Join(ds.ColumnNames(), ", "),
		Kinds(ds).String(),
		Describe(ds).String(),
	)
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
