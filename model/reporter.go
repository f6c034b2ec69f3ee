package model

import (
	"fmt"
	"io"

	"github.com/gookit/color"
)

// Reporter receives echo output while a spec runs
type Reporter interface {
	Printf(format string, args ...interface{})
}

// SilentReporter does not output anything
type SilentReporter struct{}

func (r *SilentReporter) Printf(format string, args ...interface{}) {}

// ColorReporter writes echo lines to a writer, typically stdout
type ColorReporter struct {
	Writer io.Writer
}

func (r *ColorReporter) Printf(format string, args ...interface{}) {
	fmt.Fprint(r.Writer, color.Yellow.Sprintf(format, args...))
}
