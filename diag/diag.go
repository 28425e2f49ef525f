// Package diag turns scanner and parser failures into messages that point
// into the source text.
package diag

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/rivo/uniseg"

	"github.com/hummerd/scanx"
)

// Diagnostic is a message attached to a location in a named source.
type Diagnostic struct {
	// Name identifies the source, usually a file name. It may be empty.
	Name    string
	Loc     scanx.Location
	Message string
}

// Error implements error.
func (d Diagnostic) Error() string {
	if d.Name == "" {
		return fmt.Sprintf("%s: %s", d.Loc, d.Message)
	}

	return fmt.Sprintf("%s:%s: %s", d.Name, d.Loc, d.Message)
}

// Positioner is implemented by errors that know the byte offset they refer
// to, such as *scanx.Error.
type Positioner interface {
	error
	Pos() int
}

// FromError builds a Diagnostic for the first error in err's chain that
// implements Positioner.
func FromError(name, src string, err error) (Diagnostic, bool) {
	var p Positioner
	if !errors.As(err, &p) {
		return Diagnostic{}, false
	}

	return Diagnostic{
		Name:    name,
		Loc:     scanx.New(src).LocationAt(p.Pos()),
		Message: err.Error(),
	}, true
}

// Printer writes diagnostics followed by the source line they point to.
type Printer struct {
	// Color enables coloured output.
	Color bool
}

// Fprint writes ds to w. src must be the text the diagnostics were built
// from.
func (p Printer) Fprint(w io.Writer, src string, ds ...Diagnostic) error {
	var (
		header = color.New(color.Bold)
		label  = color.New(color.FgRed, color.Bold)
		caret  = color.New(color.FgGreen, color.Bold)
	)

	for _, c := range []*color.Color{header, label, caret} {
		if p.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	s := scanx.New(src)

	for _, d := range ds {
		loc := s.LocationAt(d.Loc.Offset)

		head := loc.String()
		if d.Name != "" {
			head = d.Name + ":" + head
		}

		_, err := fmt.Fprintf(w, "%s %s %s\n", header.Sprint(head+":"), label.Sprint("error:"), d.Message)
		if err != nil {
			return err
		}

		gutter := fmt.Sprintf("%d | ", loc.Line)
		_, err = fmt.Fprintf(w, "%s%s\n", gutter, detab(s.Line(loc.Offset)))
		if err != nil {
			return err
		}

		pad := strings.Repeat(" ", len(gutter)+uniseg.StringWidth(detab(prefix(src, loc.Offset))))
		_, err = fmt.Fprintf(w, "%s%s\n", pad, caret.Sprint("^"))
		if err != nil {
			return err
		}
	}

	return nil
}

// prefix returns the part of the line containing offset that lies before it.
func prefix(src string, offset int) string {
	return src[strings.LastIndexByte(src[:offset], '\n')+1 : offset]
}

// detab replaces tabs with single spaces so the caret lines up.
func detab(text string) string {
	return strings.ReplaceAll(text, "\t", " ")
}
