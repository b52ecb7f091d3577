package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zhouzirui/datachat/internal/model/dataset"
)

var (
	// ErrNoColumns is returned for empty or whitespace-only input.
	ErrNoColumns = errors.New("no columns to parse from file")
	// ErrInvalidEncoding is returned when the input is not valid UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8 text")
)

// FieldCountError reports a data row with more fields than the header.
type FieldCountError struct {
	Line     int
	Expected int
	Saw      int
}

func (e *FieldCountError) Error() string {
	return fmt.Sprintf("expected %d fields in line %d, saw %d", e.Expected, e.Line, e.Saw)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Cell values treated as missing, mirroring the defaults of common dataframe readers.
var missingTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "<NA>": {}, "#N/A": {},
}

// Parse reads CSV bytes into a Dataset, inferring a kind for every column.
// The first record is the header. Short rows are padded with missing cells;
// rows wider than the header are rejected.
func Parse(r io.Reader, name string) (*dataset.Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrNoColumns
	}
	if !utf8.Valid(raw) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(bytes.NewReader(raw))
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoColumns
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := headerNames(header)
	ncol := len(names)

	ds := &dataset.Dataset{Name: name}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(ds.Cells)+1, err)
		}
		if len(rec) > ncol {
			line, _ := cr.FieldPos(0)
			return nil, &FieldCountError{Line: line, Expected: ncol, Saw: len(rec)}
		}
		row := make([]string, ncol)
		miss := make([]bool, ncol)
		copy(row, rec)
		for j := range row {
			if j >= len(rec) {
				miss[j] = true
				continue
			}
			if _, ok := missingTokens[row[j]]; ok {
				row[j] = ""
				miss[j] = true
			}
		}
		ds.Cells = append(ds.Cells, row)
		ds.Missing = append(ds.Missing, miss)
	}

	ds.Columns = make([]dataset.Column, ncol)
	ds.Values = make([][]float64, ncol)
	for j, n := range names {
		kind, values := inferColumn(ds, j)
		ds.Columns[j] = dataset.Column{Name: n, Kind: kind}
		ds.Values[j] = values
	}
	return ds, nil
}

// headerNames fills blank names and de-duplicates repeated ones.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		n := h
		if strings.TrimSpace(n) == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		if cnt, ok := seen[n]; ok {
			base := n
			for {
				cnt++
				n = fmt.Sprintf("%s.%d", base, cnt)
				if _, taken := seen[n]; !taken {
					break
				}
			}
			seen[base] = cnt
		}
		seen[n] = 0
		names[i] = n
	}
	return names
}

// inferColumn decides the kind of column j by the predominant parse of its
// non-missing cells and returns the numeric values for numeric kinds.
func inferColumn(ds *dataset.Dataset, j int) (dataset.Kind, []float64) {
	rows := len(ds.Cells)
	if rows == 0 {
		return dataset.KindObject, nil
	}

	var present, ints, floats, bools int
	values := make([]float64, rows)
	for i := 0; i < rows; i++ {
		if ds.Missing[i][j] {
			values[i] = math.NaN()
			continue
		}
		present++
		v := strings.TrimSpace(ds.Cells[i][j])
		if _, err := strconv.ParseInt(v, 10, 64); err == nil {
			ints++
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			floats++
			values[i] = f
		}
		switch strings.ToLower(v) {
		case "true", "false":
			bools++
		}
	}

	switch {
	case present == 0:
		return dataset.KindFloat, values
	case ints == rows:
		return dataset.KindInt, values
	case floats == present:
		return dataset.KindFloat, values
	case bools == rows:
		return dataset.KindBool, nil
	default:
		return dataset.KindObject, nil
	}
}
