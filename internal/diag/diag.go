// Package diag renders compiler and runtime diagnostics in the framed,
// caret-annotated style used throughout the ambient tooling: a colored
// level tag, a `-->` location line, a source snippet, and an optional
// note.
package diag

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a diagnostic.
type Level string

const (
	LevelError Level = "error"
	LevelNote  Level = "note"
)

// Diagnostic is anything that can be framed against a source file.
type Diagnostic interface {
	DiagLevel() Level
	DiagMessage() string
	DiagPosition() Position
	DiagNotes() []string
}

// CompileError is a fatal, pass-1 IR well-formedness failure (spec §7,
// "Compile-time, fatal"). Compilation stops at the first one produced.
type CompileError struct {
	Message  string
	Position Position
	Notes    []string
}

func (e *CompileError) Error() string          { return e.Message }
func (e *CompileError) DiagLevel() Level       { return LevelError }
func (e *CompileError) DiagMessage() string    { return e.Message }
func (e *CompileError) DiagPosition() Position { return e.Position }
func (e *CompileError) DiagNotes() []string    { return e.Notes }

// RuntimeError is a kernel-reported failure (spec §7, "Runtime,
// resource"): allocation failure, missing op handler, unsupported
// predicate type, and so on. It carries no source position since it
// happens well after compilation; DiagPosition returns the zero value.
type RuntimeError struct {
	Message string
	Notes   []string
}

func (e *RuntimeError) Error() string          { return e.Message }
func (e *RuntimeError) DiagLevel() Level       { return LevelError }
func (e *RuntimeError) DiagMessage() string    { return e.Message }
func (e *RuntimeError) DiagPosition() Position { return Position{} }
func (e *RuntimeError) DiagNotes() []string    { return e.Notes }

// Reporter formats diagnostics against one named source file.
type Reporter struct {
	filename string
	lines    []string
}

func NewReporter(filename, source string) *Reporter {
	return &Reporter{filename: filename, lines: strings.Split(source, "\n")}
}

// Format renders a diagnostic in the framed style. Diagnostics without a
// usable position (line <= 0, e.g. RuntimeError) are rendered without a
// source snippet.
func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder

	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	out.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(d.DiagLevel())), d.DiagMessage()))

	pos := d.DiagPosition()
	if pos.Line > 0 {
		width := lineNumberWidth(pos.Line)
		indent := strings.Repeat(" ", width)

		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("-->"), pos))
		out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

		if pos.Line <= len(r.lines) {
			line := r.lines[pos.Line-1]
			out.WriteString(fmt.Sprintf("%*d %s %s\n", width, pos.Line, dim("│"), line))
			marker := strings.Repeat(" ", max(0, pos.Column-1)) + levelColor("^")
			out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))
		}
	}

	for _, note := range d.DiagNotes() {
		noteColor := color.New(color.FgBlue).SprintFunc()
		out.WriteString(fmt.Sprintf("  %s %s\n", noteColor("note:"), note))
	}

	out.WriteString("\n")
	return out.String()
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		return 3
	}
	return w
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
