package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// wrapWidth caps free-text columns such as captions and transcripts.
const wrapWidth = 60

type tableSpec struct {
	title   string
	headers []string
	rows    [][]string
	aligns  []columnAlignment
	// wrap lists zero-based columns soft-wrapped at wrapWidth.
	wrap []int
}

func renderTable(tbl tableSpec) string {
	columns := len(tbl.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if tbl.title != "" {
		tw.SetTitle(tbl.title)
	}

	header := make(table.Row, columns)
	for i, h := range tbl.headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range tbl.rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	wrapped := make(map[int]bool, len(tbl.wrap))
	for _, col := range tbl.wrap {
		wrapped[col] = true
	}
	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(tbl.aligns) && tbl.aligns[i] == alignRight {
			align = text.AlignRight
		}
		cc := table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
		if wrapped[i] {
			cc.WidthMax = wrapWidth
			cc.WidthMaxEnforcer = text.WrapSoft
		}
		columnConfigs = append(columnConfigs, cc)
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
