package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type column struct {
	title string
	right bool
}

// renderTable draws rows under the given columns. A non-nil footer is
// rendered below a separator.
func renderTable(columns []column, rows [][]string, footer []string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		align := text.AlignLeft
		if col.right {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignFooter: align, AlignHeader: text.AlignLeft}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		tw.AppendRow(toRow(row, len(columns)))
	}
	if footer != nil {
		tw.AppendFooter(toRow(footer, len(columns)))
	}

	return tw.Render()
}

func toRow(values []string, n int) table.Row {
	r := make(table.Row, n)
	for i := range r {
		if i < len(values) {
			r[i] = values[i]
		}
	}
	return r
}
