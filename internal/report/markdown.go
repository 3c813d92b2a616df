package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/awsfootprint/internal/analyzer"
	"github.com/ppiankov/awsfootprint/internal/discovery"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// maxListItems caps how many elements of a list are rendered.
const maxListItems = 20

// MarkdownReporter writes a human-readable report. Services are ordered by
// cost, highest first.
type MarkdownReporter struct {
	Writer io.Writer
	Tool   string
}

// Generate writes the Markdown report.
func (r *MarkdownReporter) Generate(result *discovery.Result) error {
	if _, err := io.WriteString(r.Writer, RenderMarkdown(result, r.Tool)); err != nil {
		return fmt.Errorf("write markdown report: %w", err)
	}
	return nil
}

// RenderMarkdown renders result as Markdown.
func RenderMarkdown(result *discovery.Result, tool string) string {
	md := &mdWriter{p: message.NewPrinter(language.English)}

	title := "AWS Resources Report"
	if tool != "" {
		title = tool + ": " + title
	}
	md.line(0, "# "+title)
	md.blank()
	if result == nil {
		return md.String()
	}

	md.line(0, fmt.Sprintf("**Period:** %s to %s",
		result.Period.Start.Format("2006-01-02"), result.Period.End.Format("2006-01-02")))
	if result.Account != "" {
		md.line(0, "**Account:** "+result.Account)
	}
	md.blank()

	services := sortedByCost(result.Services)
	if len(services) > 0 {
		md.line(0, md.overview(services))
		md.blank()
	}

	for _, svc := range services {
		md.service(svc)
	}

	if len(result.Skipped) > 0 {
		md.line(0, "## Skipped services")
		for _, s := range result.Skipped {
			md.line(0, fmt.Sprintf("- %s (%s)", s.Name, s.Reason))
		}
		md.blank()
	}
	return md.String()
}

func sortedByCost(in []discovery.ServiceReport) []discovery.ServiceReport {
	out := make([]discovery.ServiceReport, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Cost.GreaterThan(out[j].Cost)
	})
	return out
}

type mdWriter struct {
	b strings.Builder
	p *message.Printer
}

func (w *mdWriter) String() string {
	return w.b.String()
}

func (w *mdWriter) line(indent int, s string) {
	w.b.WriteString(strings.Repeat("  ", indent))
	w.b.WriteString(s)
	w.b.WriteByte('\n')
}

func (w *mdWriter) blank() {
	w.b.WriteByte('\n')
}

func (w *mdWriter) overview(services []discovery.ServiceReport) string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Service", "Cost", "Unit", "Analyzer", "Status"})
	for _, s := range services {
		status := "analyzed"
		if !s.Supported {
			status = "unsupported"
		}
		kind := string(s.Kind)
		if kind == "" {
			kind = "-"
		}
		tw.AppendRow(table.Row{s.Name, w.amount(s.Cost), s.Unit, kind, status})
	}
	return tw.RenderMarkdown()
}

func (w *mdWriter) service(s discovery.ServiceReport) {
	w.line(0, fmt.Sprintf("## %s (%s %s)", s.Name, w.amount(s.Cost), s.Unit))
	if s.Note != "" {
		w.line(0, "- Note: "+s.Note)
	}
	if s.Detail != nil {
		if s.Detail.Summary != nil && s.Detail.Summary.Len() > 0 {
			w.blank()
			w.line(0, "### Summary")
			w.mapping(s.Detail.Summary, 0)
		}
		if s.Detail.DetailsRequested() {
			w.blank()
			w.line(0, "### Details")
			w.line(0, w.p.Sprintf("%d items", len(s.Detail.Details)))
			w.list(s.Detail.Details, 0)
		}
	}
	w.blank()
}

// mapping writes one line per scalar and a nested block per map or list.
func (w *mdWriter) mapping(m *analyzer.Map, indent int) {
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		switch val := v.(type) {
		case *analyzer.Map:
			w.line(indent, fmt.Sprintf("- **%s**:", k))
			w.mapping(val, indent+1)
		case analyzer.List:
			w.line(indent, fmt.Sprintf("- **%s**: %s", k, w.p.Sprintf("%d items", len(val))))
			w.list(val, indent+1)
		default:
			w.line(indent, fmt.Sprintf("- **%s**: %s", k, w.scalar(v)))
		}
	}
}

// list writes at most maxListItems elements. A map element becomes one line
// of its scalar fields with nested values below it.
func (w *mdWriter) list(l analyzer.List, indent int) {
	for i, item := range l {
		if i == maxListItems {
			w.line(indent, w.p.Sprintf("- ... and %d more items", len(l)-maxListItems))
			return
		}
		switch val := item.(type) {
		case *analyzer.Map:
			w.inlineMap(val, indent)
		case analyzer.List:
			w.line(indent, w.p.Sprintf("- %d items", len(val)))
			w.list(val, indent+1)
		default:
			w.line(indent, "- "+w.scalar(item))
		}
	}
}

func (w *mdWriter) inlineMap(m *analyzer.Map, indent int) {
	var scalars, nested []string
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		switch v.(type) {
		case *analyzer.Map, analyzer.List:
			nested = append(nested, k)
		default:
			scalars = append(scalars, fmt.Sprintf("%s: %s", k, w.scalar(v)))
		}
	}
	if len(scalars) == 0 {
		w.line(indent, "-")
	} else {
		w.line(indent, "- "+strings.Join(scalars, ", "))
	}

	sub := analyzer.NewMap()
	for _, k := range nested {
		v, _ := m.Get(k)
		sub.Set(k, v)
	}
	w.mapping(sub, indent+1)
}

// amount formats a cost with two decimals and grouped thousands without
// passing through float64.
func (w *mdWriter) amount(d decimal.Decimal) string {
	rounded := d.Round(2)
	abs := rounded.Abs()
	if abs.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return rounded.StringFixed(2)
	}
	fixed := abs.StringFixed(2)
	out := w.p.Sprintf("%d", abs.IntPart()) + fixed[len(fixed)-3:]
	if rounded.IsNegative() {
		out = "-" + out
	}
	return out
}

func (w *mdWriter) scalar(v analyzer.Value) string {
	switch val := v.(type) {
	case analyzer.Int:
		return w.p.Sprintf("%d", int64(val))
	case analyzer.Float:
		return w.p.Sprintf("%.2f", float64(val))
	case analyzer.String:
		return string(val)
	case analyzer.Bool:
		return fmt.Sprintf("%t", bool(val))
	case analyzer.Null, nil:
		return "n/a"
	default:
		return fmt.Sprintf("%v", val)
	}
}
