package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"assetgen/internal/money"
)

// reportColumn is one column of a job listing. Numeric columns hold indexes
// and dollar amounts and are right aligned.
type reportColumn struct {
	Title   string
	Numeric bool
}

func textColumn(title string) reportColumn { return reportColumn{Title: title} }
func moneyColumn(title string) reportColumn { return reportColumn{Title: title, Numeric: true} }

var indexColumn = reportColumn{Title: "#", Numeric: true}

// jobReport is the per-job listing shared by plan, run, and ledger show.
type jobReport struct {
	columns []reportColumn
	writer  table.Writer
}

func newJobReport(columns ...reportColumn) *jobReport {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, column := range columns {
		header[i] = column.Title
		align := text.AlignLeft
		if column.Numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			AlignFooter: align,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return &jobReport{columns: columns, writer: tw}
}

// add appends a row; missing trailing cells render empty.
func (r *jobReport) add(cells ...string) {
	r.writer.AppendRow(r.row(cells))
}

// total adds a footer with label in the first text column and amount under
// the column titled column.
func (r *jobReport) total(label, column string, amount money.Amount) {
	cells := make([]string, len(r.columns))
	placed := false
	for i, c := range r.columns {
		if c.Title == column {
			cells[i] = amount.Dollars()
		} else if !placed && !c.Numeric {
			cells[i] = label
			placed = true
		}
	}
	r.writer.AppendFooter(r.row(cells))
}

func (r *jobReport) rows() int {
	return r.writer.Length()
}

func (r *jobReport) render() string {
	return r.writer.Render()
}

func (r *jobReport) row(cells []string) table.Row {
	row := make(table.Row, len(r.columns))
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}

// renderTotals draws the headerless counter and money block printed under a
// run.
func renderTotals(pairs [][2]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	for _, p := range pairs {
		tw.AppendRow(table.Row{p[0], p[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}
