package tabular

import (
	"strings"
	"unicode/utf8"
)

// Table is a small text grid: a left-aligned index column followed by
// right-aligned value columns. An empty Header omits the header line.
type Table struct {
	Header []string
	Index  []string
	Rows   [][]string
	// Gap is the minimum spacing between columns; zero means two spaces.
	Gap int
}

// String renders the table as plain text without a trailing newline.
func (t Table) String() string {
	gap := t.Gap
	if gap <= 0 {
		gap = 2
	}

	ncol := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > ncol {
			ncol = len(row)
		}
	}

	indexWidth := 0
	for _, v := range t.Index {
		indexWidth = max(indexWidth, width(v))
	}
	colWidths := make([]int, ncol)
	for j := 0; j < ncol; j++ {
		if j < len(t.Header) {
			colWidths[j] = width(t.Header[j])
		}
		for _, row := range t.Rows {
			if j < len(row) {
				colWidths[j] = max(colWidths[j], width(row[j]))
			}
		}
	}

	var b strings.Builder
	writeLine := func(index string, cells []string) {
		b.WriteString(index)
		b.WriteString(strings.Repeat(" ", indexWidth-width(index)))
		for j := 0; j < ncol; j++ {
			cell := ""
			if j < len(cells) {
				cell = cells[j]
			}
			b.WriteString(strings.Repeat(" ", gap+colWidths[j]-width(cell)))
			b.WriteString(cell)
		}
	}

	lines := 0
	if len(t.Header) > 0 {
		writeLine("", t.Header)
		lines++
	}
	for i, row := range t.Rows {
		if lines > 0 {
			b.WriteByte('\n')
		}
		index := ""
		if i < len(t.Index) {
			index = t.Index[i]
		}
		writeLine(index, row)
		lines++
	}
	return b.String()
}

func width(s string) int {
	return utf8.RuneCountInString(s)
}
