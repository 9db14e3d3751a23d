package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/prismacase/internal/transform"
)

// MarkdownFormatter formats a rename report as markdown
type MarkdownFormatter struct {
	writer io.Writer
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes a heading, one table row per changed identifier and a summary line
func (f *MarkdownFormatter) Format(r *transform.Report) error {
	_, _ = fmt.Fprintln(f.writer, "# Rename Summary")
	_, _ = fmt.Fprintln(f.writer)

	groups := groupByModel(r)
	for _, g := range groups {
		f.formatModel(g)
	}

	_, _ = fmt.Fprintln(f.writer, summaryLine(r))
	return nil
}

func (f *MarkdownFormatter) formatModel(g *modelGroup) {
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", g.name)
	if g.from != g.name {
		_, _ = fmt.Fprintf(f.writer, "Mapped from `%s`.\n\n", g.from)
	}

	if len(g.members) == 0 {
		return
	}

	_, _ = fmt.Fprintln(f.writer, "| Kind | From | To |")
	_, _ = fmt.Fprintln(f.writer, "|------|------|----|")
	for _, rn := range g.members {
		_, _ = fmt.Fprintf(f.writer, "| %s | `%s` | `%s` |\n", rn.Kind, rn.From, rn.To)
	}
	_, _ = fmt.Fprintln(f.writer)
}
