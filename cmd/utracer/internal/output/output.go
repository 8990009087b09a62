// SPDX-License-Identifier: GPL-3.0-or-later

// Package output renders CLI subcommand results as a table or as JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Format is the rendering mode a subcommand's --format flag selects.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses the --format flag value, defaulting to text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid --format %q (valid: text, json)", s)
	}
}

// TableRenderer is implemented by result types that know how to lay
// themselves out as rows.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// Write renders data to w in the given format: as a table (via
// [TableRenderer]) or as indented JSON from raw.
func Write(w io.Writer, format Format, raw any, table TableRenderer) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	default:
		return writeTable(w, table)
	}
}

func writeTable(w io.Writer, data TableRenderer) error {
	rows := data.Rows()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	return nil
}

// Rows is a ready-made [TableRenderer] for ad-hoc result shapes that don't
// warrant their own named type.
type Rows struct {
	headers []string
	rows    [][]string
}

// NewRows builds a [Rows] with the given header labels.
func NewRows(headers ...string) *Rows {
	return &Rows{headers: headers}
}

// Add appends one row.
func (r *Rows) Add(cols ...string) {
	r.rows = append(r.rows, cols)
}

// Headers implements [TableRenderer].
func (r *Rows) Headers() []string { return r.headers }

// Rows implements [TableRenderer].
func (r *Rows) Rows() [][]string { return r.rows }
