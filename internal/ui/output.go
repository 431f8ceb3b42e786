package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

const (
	BoxWidth = 46
)

var (
	Bold    = color.New(color.Bold).SprintFunc()
	Dim     = color.New(color.Faint).SprintFunc()
	Green   = color.New(color.FgGreen).SprintFunc()
	Cyan    = color.New(color.FgCyan).SprintFunc()
	Yellow  = color.New(color.FgYellow).SprintFunc()
	Red     = color.New(color.FgRed).SprintFunc()
	Magenta = color.New(color.FgMagenta).SprintFunc()

	// Out receives status output. Container output and command results
	// go to stdout, so this stays on stderr.
	Out io.Writer = os.Stderr
)

// Header prints the top border labelled with the scenario name.
func Header(title string) {
	label := "testbed"
	if title != "" {
		label += " · " + title
	}
	width := BoxWidth - len([]rune(label)) - 3
	if width < 1 {
		width = 1
	}
	fmt.Fprintf(Out, "  %s %s %s\n", Dim("┌"), Bold(label), Dim(strings.Repeat("─", width)))
}

// Footer prints the bottom border.
func Footer() {
	fmt.Fprintf(Out, "  %s\n", Dim("└"+strings.Repeat("─", BoxWidth-1)))
}

// Info prints an informational message with a cyan arrow.
func Info(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", Cyan("→"), fmt.Sprintf(format, args...))
}

// Success prints a success message with a green checkmark.
func Success(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", Green("✔"), fmt.Sprintf(format, args...))
}

// Fail prints an error message with a red X.
func Fail(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", Red("✘"), fmt.Sprintf(format, args...))
}

// Warn prints a warning message with a yellow circle.
func Warn(format string, args ...any) {
	fmt.Fprintf(Out, "  %s %s\n", Yellow("○"), fmt.Sprintf(format, args...))
}

// DimMsg prints a dimmed message.
func DimMsg(format string, args ...any) {
	fmt.Fprintf(Out, "  %s\n", Dim(fmt.Sprintf(format, args...)))
}

// Binding prints one resolved binding as "name  left → right".
func Binding(name, left, right string) {
	fmt.Fprintf(Out, "    %-10s %s %s %s\n", Magenta(name), left, Dim("→"), right)
}

// BlankLine prints an empty line.
func BlankLine() {
	fmt.Fprintln(Out, "")
}
