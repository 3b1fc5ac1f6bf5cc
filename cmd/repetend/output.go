package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Palette
var (
	colorPrimary = lipgloss.Color("#8BC34A")
	colorAccent  = lipgloss.Color("#2196F3")
	colorWarning = lipgloss.Color("#FFC107")
	colorError   = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#6B7280")
)

// styles binds the palette to the color profile of one writer, so piped or
// captured output carries no escape codes.
type styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Value   lipgloss.Style
	Muted   lipgloss.Style
	Good    lipgloss.Style
	Warn    lipgloss.Style
	Bad     lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Title:   r.NewStyle().Bold(true).Foreground(colorPrimary),
		Section: r.NewStyle().Bold(true).Foreground(colorAccent),
		Value:   r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Good:    r.NewStyle().Foreground(colorPrimary),
		Warn:    r.NewStyle().Foreground(colorWarning),
		Bad:     r.NewStyle().Foreground(colorError),
	}
}

// printer writes either JSON or styled text to one writer.
type printer struct {
	w    io.Writer
	json bool
	st   styles
}

func newPrinter(w io.Writer, jsonOut bool) *printer {
	return &printer{w: w, json: jsonOut, st: newStyles(w)}
}

func (p *printer) JSON(v interface{}) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) Title(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.st.Title.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) Section(name string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.st.Section.Render(name))
}

func (p *printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) Muted(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.st.Muted.Render(fmt.Sprintf(format, args...)))
}

// Fields prints aligned key/value rows.
func (p *printer) Fields(rows [][2]string) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", r[0], r[1])
	}
	tw.Flush()
}

// Table prints a header row followed by aligned rows.
func (p *printer) Table(header []string, rows [][]string) {
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %s\n", strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\n", strings.Join(r, "\t"))
	}
	tw.Flush()
}

// Markdown renders markdown through glamour, falling back to the raw
// source when the renderer cannot be built.
func (p *printer) Markdown(src string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		_, werr := io.WriteString(p.w, src)
		return werr
	}
	out, err := r.Render(src)
	if err != nil {
		_, werr := io.WriteString(p.w, src)
		return werr
	}
	_, err = io.WriteString(p.w, out)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// truncate shortens long digit strings for text output.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s... (%d digits)", s[:n], len(s))
}

func joinInts[T ~int | ~int64](vs []T) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", ")
}
