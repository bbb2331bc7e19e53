// Package output provides terminal formatting for ratectl.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default)
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment
func ResolveColors(mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return !color.NoColor
	}
}

// Printer handles formatted output to the terminal
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
}

// NewPrinter creates a printer writing to out and err.
func NewPrinter(out, err io.Writer, useColors bool) *Printer {
	return &Printer{out: out, err: err, useColors: useColors}
}

// Out is the printer's standard output.
func (p *Printer) Out() io.Writer {
	return p.out
}

// paint returns a color that honors the printer setting regardless of
// whether the output is a terminal.
func (p *Printer) paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if p.useColors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

// Success prints a success message
func (p *Printer) Success(format string, args ...interface{}) {
	prefix := "[OK] "
	if p.useColors {
		prefix = "✓ "
	}
	_, _ = p.paint(color.FgGreen).Fprintf(p.out, prefix+format+"\n", args...)
}

// Warning prints a warning message
func (p *Printer) Warning(format string, args ...interface{}) {
	prefix := "[WARN] "
	if p.useColors {
		prefix = "⚠ "
	}
	_, _ = p.paint(color.FgYellow).Fprintf(p.err, prefix+format+"\n", args...)
}

// Error prints an error message
func (p *Printer) Error(format string, args ...interface{}) {
	prefix := "[ERROR] "
	if p.useColors {
		prefix = "✗ "
	}
	_, _ = p.paint(color.FgRed).Fprintf(p.err, prefix+format+"\n", args...)
}

// Print prints a plain message
func (p *Printer) Print(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Header prints a section header
func (p *Printer) Header(title string) {
	underline := "-"
	if p.useColors {
		underline = "─"
	}
	_, _ = p.paint(color.Bold).Fprintf(p.out, "\n%s\n", title)
	_, _ = fmt.Fprintf(p.out, "%s\n", strings.Repeat(underline, len([]rune(title))))
}

// Green returns text in green
func (p *Printer) Green(text string) string {
	return p.paint(color.FgGreen).Sprint(text)
}

// Red returns text in red
func (p *Printer) Red(text string) string {
	return p.paint(color.FgRed).Sprint(text)
}

// Bold returns text in bold
func (p *Printer) Bold(text string) string {
	return p.paint(color.Bold).Sprint(text)
}
