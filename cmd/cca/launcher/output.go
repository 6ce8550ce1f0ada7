package launcher

import (
	"encoding/json"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// table is one block of text output.
type table struct {
	header []string
	rows   [][]string
}

// tabular is a command result. JSON output marshals the value itself, text
// output renders its tables.
type tabular interface {
	tables() []table
}

type printer struct {
	format string
	w      io.Writer
}

func (p printer) print(v tabular) error {
	if p.format == formatJSON {
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	for _, t := range v.tables() {
		tw := tablewriter.NewWriter(p.w)
		tw.SetAutoWrapText(false)
		tw.SetAutoFormatHeaders(false)
		tw.SetHeader(t.header)
		tw.AppendBulk(t.rows)
		tw.Render()
	}
	return nil
}

// fields renders name/value pairs in name order.
func fields(m map[string]string) table {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table{header: []string{"field", "value"}}
	for _, k := range keys {
		t.rows = append(t.rows, []string{k, m[k]})
	}
	return t
}
