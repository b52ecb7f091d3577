package view

import (
	"github.com/zhouzirui/datachat/internal/analysis/tabular"
	"github.com/zhouzirui/datachat/internal/model/chat"
	"github.com/zhouzirui/datachat/internal/service/analysis"
)

// PreviewRows is how many rows the data preview panel shows.
const PreviewRows = 10

// UploadNotice is shown in place of the chat until a dataset is loaded.
const UploadNotice = "Please upload a CSV file to start chatting."

// ExampleQuestions are the static hints offered before any data is loaded.
var ExampleQuestions = []string{
	"Summarize this dataset",
	"What are the main statistics for column X?",
	"Are there any missing values?",
	"Show me the correlation between X and Y",
	"What insights can you provide about this data?",
}

// Table is the data preview grid.
type Table struct {
	Columns []string   `json:"columns"`
	Kinds   []string   `json:"kinds"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// View is everything one render of the surface needs.
type View struct {
	SessionID   string       `json:"sessionId"`
	FileName    string       `json:"fileName,omitempty"`
	FileInfo    string       `json:"fileInfo,omitempty"`
	FileError   bool         `json:"fileError,omitempty"`
	Preview     *Table       `json:"preview,omitempty"`
	Transcript  []chat.Entry `json:"transcript"`
	ChatEnabled bool         `json:"chatEnabled"`
	Notice      string       `json:"notice,omitempty"`
	Hints       []string     `json:"hints,omitempty"`
}

// Build reads the session state through; the surface keeps no copy of its own.
func Build(sessionID string, s *analysis.Session) View {
	v := View{
		SessionID:  sessionID,
		Transcript: s.Transcript(),
	}

	if report, ok := s.LastLoad(); ok {
		v.FileName = report.FileName
		v.FileInfo = report.Text
		v.FileError = report.Failed
	}

	if ds := s.Dataset(); ds != nil {
		head := tabular.Head(ds, PreviewRows)
		preview := &Table{Columns: head.Header, Rows: head.Rows, Total: ds.Rows()}
		for _, c := range ds.Columns {
			preview.Kinds = append(preview.Kinds, string(c.Kind))
		}
		v.Preview = preview
		v.ChatEnabled = true
	} else {
		v.Notice = UploadNotice
		v.Hints = ExampleQuestions
	}
	return v
}
