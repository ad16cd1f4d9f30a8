// Package output renders command results as aligned tables, JSON or YAML.
//
// Commands build both a table (headers and rows) and the underlying value;
// the Printer picks whichever the selected format needs.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat accepts table, json or yaml (and the alias yml).
func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "table", "wide":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", v)
	}
}

// Printer writes formatted output to a target writer.
type Printer struct {
	w      io.Writer
	format Format
}

func NewPrinter(w io.Writer, format Format) *Printer {
	if format == "" {
		format = FormatTable
	}
	return &Printer{w: w, format: format}
}

// Structured reports whether output is meant for machines.
func (p *Printer) Structured() bool { return p.format != FormatTable }

func (p *Printer) Println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Render prints v in the structured formats and the table otherwise.
func (p *Printer) Render(v any, headers []string, rows [][]string) error {
	if p.Structured() {
		return p.Object(v)
	}
	p.Table(headers, rows)
	return nil
}

// Object encodes v as JSON or YAML. In table mode it falls back to YAML.
func (p *Printer) Object(v any) error {
	if p.format == FormatJSON {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(p.w, string(b))
		return nil
	}
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (p *Printer) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// KeyValues prints aligned "key: value" pairs in order.
func (p *Printer) KeyValues(pairs [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 1, ' ', 0)
	for _, kv := range pairs {
		fmt.Fprintf(tw, "%s:\t%s\n", kv[0], kv[1])
	}
	_ = tw.Flush()
}

// Header writes an underlined section title. Skipped in structured formats.
func (p *Printer) Header(title string) {
	if p.Structured() {
		return
	}
	fmt.Fprintln(p.w, strings.ToUpper(title))
	fmt.Fprintln(p.w, strings.Repeat("─", len(title)))
}

func (p *Printer) Success(msg string, args ...any) {
	fmt.Fprintf(p.w, "✓ "+msg+"\n", args...)
}

func (p *Printer) Warning(msg string, args ...any) {
	fmt.Fprintf(p.w, "⚠ "+msg+"\n", args...)
}
