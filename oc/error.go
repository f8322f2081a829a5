package oc

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ParseError is a recoverable parse diagnostic. The parser never stops
// at the first error; it accumulates them and keeps going.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// FormatErrors renders accumulated diagnostics for terminal output,
// one per line, prefixed with the source file name when given.
func FormatErrors(file string, errs []ParseError) string {
	var b strings.Builder
	for i := range errs {
		if file != "" {
			b.WriteString(pterm.LightCyan(file) + ":")
		}
		b.WriteString(pterm.Red(errs[i].Error()))
		b.WriteByte('\n')
	}
	return b.String()
}
