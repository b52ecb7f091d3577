package analysis

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/datachat/internal/analysis/tabular"
	"github.com/zhouzirui/datachat/internal/model/dataset"
)

// sampleRows is how many leading rows accompany data-oriented questions.
const sampleRows = 5

// Words that mark a question as being about the data itself. Matching is a
// case-insensitive substring test, so "rows" and "database" count too.
var sampleKeywords = []string{"data", "csv", "file", "column", "row", "value", "analyze", "statistics"}

// WantsSample reports whether message should carry a sample of the dataset.
func WantsSample(message string) bool {
	normalized := strings.ToLower(message)
	for _, word := range sampleKeywords {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}

// BuildPrompt assembles the single outbound text for one chat turn. Without
// a dataset no data context is included at all.
func BuildPrompt(ds *dataset.Dataset, summary, message string) string {
	var b strings.Builder
	if ds != nil {
		fmt.Fprintf(&b, "The user has loaded a CSV file with the following information:\n%s\n\n", summary)
		if WantsSample(message) {
			fmt.Fprintf(&b, "Here's a sample of the data (first %d rows):\n%s\n\n", sampleRows, tabular.Head(ds, sampleRows).String())
		}
	}
	fmt.Fprintf(&b, "User question: %s\n\nPlease provide a helpful response about the data.", message)
	return b.String()
}
