package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"aqve/internal/entities"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// Printer writes command results in the selected output format.
type Printer struct {
	w      io.Writer
	format string
}

func newPrinter(w io.Writer, format string) (*Printer, error) {
	switch format {
	case formatTable, formatJSON, formatYAML:
		return &Printer{w: w, format: format}, nil
	}
	return nil, fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
}

// table is the tabular rendering of a result.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Print writes v as JSON or YAML, or t when the format is table.
func (p *Printer) Print(v any, t *table) error {
	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		return p.writeYAML(v)
	}
	if t == nil {
		return nil
	}
	if len(t.rows) == 0 {
		_, err := fmt.Fprintln(p.w, "Nothing to show.")
		return err
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	if len(t.header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	}
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Fields prints label/value pairs for a single record.
func (p *Printer) Fields(v any, pairs ...string) error {
	t := &table{}
	for i := 0; i+1 < len(pairs); i += 2 {
		t.add(pairs[i]+":", pairs[i+1])
	}
	return p.Print(v, t)
}

// Message prints a one-line acknowledgement. Structured formats get
// {"message": ...}.
func (p *Printer) Message(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if p.format != formatTable {
		return p.Print(entities.MessageResponse{Message: msg}, nil)
	}
	_, err := fmt.Fprintln(p.w, msg)
	return err
}

// writeYAML goes through JSON so field names match the API's.
func (p *Printer) writeYAML(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	blockStyle(&node)
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

func money(m entities.Money) string {
	return m.StringFixed(2)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}

func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
