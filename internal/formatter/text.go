package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/prismacase/internal/transform"
)

// TextFormatter formats a rename report as compact text
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes one block per model that has changed identifiers
func (f *TextFormatter) Format(r *transform.Report) error {
	groups := groupByModel(r)
	for i, g := range groups {
		if i > 0 {
			_, _ = fmt.Fprintln(f.writer) // Blank line between models
		}

		if g.from != g.name {
			_, _ = fmt.Fprintf(f.writer, "MODEL %s -> %s\n", g.from, g.name)
		} else {
			_, _ = fmt.Fprintf(f.writer, "MODEL %s\n", g.name)
		}
		for _, rn := range g.members {
			label := ""
			if rn.Kind == transform.RenamedIndex {
				label = "INDEX "
			}
			_, _ = fmt.Fprintf(f.writer, "  %s%s -> %s\n", label, rn.From, rn.To)
		}
	}

	if len(groups) > 0 {
		_, _ = fmt.Fprintln(f.writer)
	}
	_, _ = fmt.Fprintln(f.writer, summaryLine(r))
	return nil
}

// modelGroup collects the changed renames that belong to one model
type modelGroup struct {
	name    string
	from    string
	members []transform.Rename
}

// groupByModel keeps report order and drops models without changes
func groupByModel(r *transform.Report) []*modelGroup {
	var groups []*modelGroup
	byName := map[string]*modelGroup{}

	group := func(name string) *modelGroup {
		g, ok := byName[name]
		if !ok {
			g = &modelGroup{name: name, from: name}
			byName[name] = g
			groups = append(groups, g)
		}
		return g
	}

	for _, rn := range r.Renames {
		if !rn.Changed() {
			continue
		}
		if rn.Kind == transform.RenamedModel {
			group(rn.To).from = rn.From
			continue
		}
		g := group(rn.Model)
		g.members = append(g.members, rn)
	}
	return groups
}

func summaryLine(r *transform.Report) string {
	changed := len(r.Changed())
	if changed == 0 {
		return "No identifiers changed."
	}

	var models, fields, indexes int
	for _, rn := range r.Changed() {
		switch rn.Kind {
		case transform.RenamedModel:
			models++
		case transform.RenamedField:
			fields++
		case transform.RenamedIndex:
			indexes++
		}
	}
	return fmt.Sprintf("%d renamed (%s, %s, %s), %d unchanged.",
		changed,
		plural(models, "model"),
		plural(fields, "field"),
		plural(indexes, "index"),
		len(r.Renames)-changed)
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if noun == "index" {
		return fmt.Sprintf("%d indexes", n)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
