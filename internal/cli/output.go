// Package cli renders command output for the fleetctl CLI in the format the
// operator asked for: a human table by default, JSON or YAML for scripting.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"fleetctl/internal/config"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// Printer writes command results to out in a fixed format. Quiet suppresses
// decoration so output stays pipeable.
type Printer struct {
	format OutputFormat
	quiet  bool
	out    io.Writer
}

// NewPrinter validates the format and returns a ready Printer.
func NewPrinter(format OutputFormat, quiet bool, out io.Writer) (*Printer, error) {
	switch format {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return &Printer{format: format, quiet: quiet, out: out}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

// Quiet reports whether decoration should be suppressed.
func (p *Printer) Quiet() bool { return p.quiet }

// Rows renders a table from header and rows in table mode; in json/yaml mode
// it marshals v instead, so scripted consumers get the full objects rather
// than the truncated table cells.
func (p *Printer) Rows(v interface{}, header table.Row, rows []table.Row) error {
	if p.format != OutputFormatTable {
		return p.Object(v)
	}

	w := table.NewWriter()
	w.SetOutputMirror(p.out)
	w.AppendHeader(header)
	w.AppendRows(rows)
	w.SetStyle(table.StyleLight)
	if p.quiet {
		w.SetStyle(table.Style{
			Box:     table.StyleBoxDefault,
			Options: table.OptionsNoBordersAndSeparators,
		})
	}
	w.Render()
	return nil
}

// Object marshals v as JSON or YAML. In table mode it falls back to YAML,
// which reads best for nested detail output.
func (p *Printer) Object(v interface{}) error {
	switch p.format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		fmt.Fprintln(p.out, string(data))
		return nil
	default:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		fmt.Fprint(p.out, string(data))
		return nil
	}
}

// Line writes one plain line, respecting quiet mode for decorative text.
func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// statusText maps each status variant to its CLI color. The mapping lives
// here, in the presentation layer, not on the status type itself.
var statusText = map[config.ServiceStatus]text.Colors{
	config.StatusNotInstalled: {text.Faint},
	config.StatusStopped:      {},
	config.StatusStarting:     {text.FgYellow},
	config.StatusRunning:      {text.FgGreen},
	config.StatusUnhealthy:    {text.FgRed},
	config.StatusError:        {text.FgRed, text.Bold},
}

// FormatStatus renders a service status for table cells, colored unless
// quiet output was requested.
func (p *Printer) FormatStatus(status config.ServiceStatus) string {
	if p.quiet || p.format != OutputFormatTable {
		return string(status)
	}
	colors, ok := statusText[status]
	if !ok {
		return string(status)
	}
	return colors.Sprint(string(status))
}

// SortedKeys returns the keys of a string map in stable order, for
// deterministic detail output.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
