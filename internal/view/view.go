// Package view provides output formatting for mcr commands.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/nickwells/location.mod/location"

	"github.com/open-cli-collective/macro-cli/pkg/macro"
)

// Format represents an output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatPlain Format = "plain"
)

// ValidFormats returns the accepted --output values.
func ValidFormats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatPlain)}
}

// ValidateFormat checks an --output value. Empty means the default.
func ValidateFormat(format string) error {
	if format == "" {
		return nil
	}
	for _, f := range ValidFormats() {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q: must be one of %s", format, strings.Join(ValidFormats(), ", "))
}

// Renderer renders data in a specific format.
type Renderer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewRenderer creates a new renderer with the specified format. An empty
// format means table.
func NewRenderer(format Format, noColor bool) *Renderer {
	if noColor {
		color.NoColor = true
	}
	if format == "" {
		format = FormatTable
	}
	return &Renderer{
		format:  format,
		writer:  os.Stdout,
		noColor: noColor,
	}
}

// SetWriter sets the output writer.
func (r *Renderer) SetWriter(w io.Writer) {
	r.writer = w
}

// Format returns the renderer's output format.
func (r *Renderer) Format() Format {
	return r.format
}

// RenderTable renders rows under headers. JSON output is a list of objects
// keyed by the lower-cased headers; plain output is tab-separated rows
// without headers.
func (r *Renderer) RenderTable(headers []string, rows [][]string) {
	switch r.format {
	case FormatJSON:
		r.renderTableAsJSON(headers, rows)
		return
	case FormatPlain:
		for _, row := range rows {
			fmt.Fprintln(r.writer, strings.Join(row, "\t"))
		}
		return
	}

	tw := tabwriter.NewWriter(r.writer, 0, 0, 2, ' ', 0)
	bold := color.New(color.Bold)
	_, _ = bold.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

func (r *Renderer) renderTableAsJSON(headers []string, rows [][]string) {
	result := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		item := make(map[string]string)
		for i, header := range headers {
			if i < len(row) {
				item[strings.ToLower(header)] = row[i]
			}
		}
		result = append(result, item)
	}
	_ = r.RenderJSON(result)
}

// RenderJSON renders an object as indented JSON.
func (r *Renderer) RenderJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(r.writer, string(data))
	return nil
}

// RenderText renders plain text.
func (r *Renderer) RenderText(text string) {
	fmt.Fprintln(r.writer, text)
}

// Success prints a success message.
func (r *Renderer) Success(msg string) {
	_, _ = color.New(color.FgGreen).Fprintln(r.writer, "✓ "+msg)
}

// Warning prints a warning message.
func (r *Renderer) Warning(msg string) {
	_, _ = color.New(color.FgYellow).Fprintln(r.writer, "! "+msg)
}

// Error prints an error message.
func (r *Renderer) Error(msg string) {
	_, _ = color.New(color.FgRed).Fprintln(r.writer, "✗ "+msg)
}

// DiagnosticView is a diagnostic with its source location resolved.
type DiagnosticView struct {
	Location string     `json:"location"`
	Position int        `json:"position"`
	Macro    string     `json:"macro"`
	Kind     macro.Kind `json:"error"`
	Message  string     `json:"message"`
}

// Locate returns "source:line" for byte offset pos in text. Lines count
// from 1; an offset past the end maps to the last line.
func Locate(source, text string, pos int) string {
	loc := location.New(source)
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		loc.Incr()
		offset += len(line)
		if pos < offset {
			break
		}
	}
	return loc.String()
}

// Diagnostics resolves the location of every diagnostic against text.
func Diagnostics(source, text string, diags []macro.Diagnostic) []DiagnosticView {
	views := make([]DiagnosticView, 0, len(diags))
	for _, d := range diags {
		views = append(views, DiagnosticView{
			Location: Locate(source, text, d.Position),
			Position: d.Position,
			Macro:    d.Macro,
			Kind:     d.Kind,
			Message:  d.Message,
		})
	}
	return views
}

// RenderDiagnostics reports validation results for text read from source.
func (r *Renderer) RenderDiagnostics(source, text string, diags []macro.Diagnostic) error {
	views := Diagnostics(source, text, diags)

	switch r.format {
	case FormatJSON:
		return r.RenderJSON(views)
	case FormatPlain:
		for _, v := range views {
			fmt.Fprintf(r.writer, "%s: %s: %s\n", v.Location, v.Kind, v.Message)
		}
		return nil
	}

	if len(views) == 0 {
		r.Success(fmt.Sprintf("All macros in %s resolved", source))
		return nil
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{v.Location, Truncate(v.Macro, 40), v.Kind.String(), v.Message})
	}
	r.RenderTable([]string{"LOCATION", "MACRO", "ERROR", "MESSAGE"}, rows)
	fmt.Fprintln(r.writer)
	r.Error(strconv.Itoa(len(views)) + " macro(s) failed to resolve")
	return nil
}

// Truncate truncates a string to the specified length in bytes.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
