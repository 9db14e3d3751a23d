package psl

import (
	"sort"
	"strings"

	"github.com/tordrt/prismacase/internal/schema"
)

const indent = "  "

// fieldAttributeRank fixes the order of field attributes in rendered output.
// Attributes not listed keep their source order after the known ones.
var fieldAttributeRank = map[string]int{
	"id":        0,
	"unique":    1,
	"default":   2,
	"updatedAt": 3,
	"map":       4,
	"relation":  5,
	"ignore":    7,
}

const (
	nativeTypeRank = 6
	otherRank      = 8
)

// Render writes the schema back as text: configuration blocks first, then
// datamodel blocks, both in source order and separated by one blank line.
func Render(s *schema.Schema) string {
	r := &renderer{}
	for _, block := range s.Config.Blocks {
		r.separate()
		r.configBlock(block)
	}
	for _, block := range s.Datamodel.Blocks {
		r.separate()
		switch b := block.(type) {
		case *schema.Model:
			r.model(b)
		case *schema.Enum:
			r.enum(b)
		case *schema.CompositeType:
			r.compositeType(b)
		}
	}
	if len(s.Comments) > 0 {
		r.separate()
		r.comments("", s.Comments, nil)
	}
	return r.b.String()
}

type renderer struct {
	b       strings.Builder
	started bool
}

func (r *renderer) separate() {
	if r.started {
		r.b.WriteString("\n")
	}
	r.started = true
}

func (r *renderer) line(s string) {
	r.b.WriteString(strings.TrimRight(s, " "))
	r.b.WriteString("\n")
}

func (r *renderer) comments(prefix string, comments, docs []string) {
	for _, c := range comments {
		r.line(prefix + "//" + c)
	}
	for _, d := range docs {
		r.line(prefix + "///" + d)
	}
}

func (r *renderer) configBlock(block *schema.ConfigBlock) {
	r.comments("", block.Comments, nil)
	r.line(string(block.Kind) + " " + block.Name + " {")

	width := 0
	for _, prop := range block.Properties {
		width = max(width, len(prop.Key))
	}
	for _, prop := range block.Properties {
		r.comments(indent, prop.Comments, nil)
		r.line(indent + pad(prop.Key, width) + " = " + renderExpr(prop.Value))
	}
	r.comments(indent, block.TrailingComments, nil)
	r.line("}")
}

func (r *renderer) model(m *schema.Model) {
	r.comments("", m.Comments, m.Documentation)
	r.line(string(m.Kind) + " " + m.Name + " {")
	r.fields(m.Fields)

	var blockAttrs []string
	for _, idx := range m.Indexes {
		blockAttrs = appendLine(blockAttrs, idx.Comments, renderIndex(idx), idx.TrailingComment)
	}
	if m.DatabaseName != nil {
		blockAttrs = appendLine(blockAttrs, m.MapComments, "@@map("+quote(*m.DatabaseName)+")", m.MapTrailingComment)
	}
	blockAttrs = appendAttributes(blockAttrs, m.Attributes)
	r.blockAttributes(len(m.Fields) > 0, blockAttrs)
	r.comments(indent, m.TrailingComments, nil)
	r.line("}")
}

func (r *renderer) compositeType(ct *schema.CompositeType) {
	r.comments("", ct.Comments, ct.Documentation)
	r.line("type " + ct.Name + " {")
	r.fields(ct.Fields)

	blockAttrs := appendAttributes(nil, ct.Attributes)
	r.blockAttributes(len(ct.Fields) > 0, blockAttrs)
	r.comments(indent, ct.TrailingComments, nil)
	r.line("}")
}

func (r *renderer) enum(e *schema.Enum) {
	r.comments("", e.Comments, e.Documentation)
	r.line("enum " + e.Name + " {")

	rows := make([][]string, len(e.Values))
	for i, v := range e.Values {
		attrs := make([]*schema.Attribute, 0, len(v.Attributes)+1)
		attrs = append(attrs, v.Attributes...)
		if v.DatabaseName != nil {
			attrs = append(attrs, mapAttribute(*v.DatabaseName))
		}
		rows[i] = []string{v.Name, renderFieldAttributes(attrs), trailing(v.TrailingComment)}
	}
	widths := columnWidths(rows)
	for i, v := range e.Values {
		r.comments(indent, v.Comments, v.Documentation)
		r.line(indent + alignRow(rows[i], widths))
	}

	var blockAttrs []string
	if e.DatabaseName != nil {
		blockAttrs = appendLine(blockAttrs, e.MapComments, "@@map("+quote(*e.DatabaseName)+")", e.MapTrailingComment)
	}
	blockAttrs = appendAttributes(blockAttrs, e.Attributes)
	r.blockAttributes(len(e.Values) > 0, blockAttrs)
	r.comments(indent, e.TrailingComments, nil)
	r.line("}")
}

// fields writes the aligned name, type and attribute columns.
func (r *renderer) fields(fields []*schema.Field) {
	rows := make([][]string, len(fields))
	for i, f := range fields {
		attrs := make([]*schema.Attribute, 0, len(f.Attributes)+1)
		attrs = append(attrs, f.Attributes...)
		if f.DatabaseName != nil {
			attrs = append(attrs, mapAttribute(*f.DatabaseName))
		}
		rows[i] = []string{f.Name, renderFieldType(f.Type), renderFieldAttributes(attrs), trailing(f.TrailingComment)}
	}
	widths := columnWidths(rows)
	for i, f := range fields {
		r.comments(indent, f.Comments, f.Documentation)
		r.line(indent + alignRow(rows[i], widths))
	}
}

func (r *renderer) blockAttributes(hasMembers bool, attrs []string) {
	if len(attrs) == 0 {
		return
	}
	if hasMembers {
		r.line("")
	}
	for _, a := range attrs {
		r.line(indent + a)
	}
}

// appendLine adds one block attribute line preceded by its comment lines.
func appendLine(lines, comments []string, text, trailingComment string) []string {
	for _, c := range comments {
		lines = append(lines, "//"+c)
	}
	if trailingComment != "" {
		text += " " + trailing(trailingComment)
	}
	return append(lines, text)
}

func appendAttributes(lines []string, attrs []*schema.Attribute) []string {
	for _, attr := range attrs {
		lines = appendLine(lines, attr.Comments, "@"+renderAttribute(attr), attr.TrailingComment)
	}
	return lines
}

func trailing(comment string) string {
	if comment == "" {
		return ""
	}
	return "//" + comment
}

// columnWidths returns the widest cell per column, ignoring the last column.
func columnWidths(rows [][]string) []int {
	if len(rows) == 0 {
		return nil
	}
	widths := make([]int, len(rows[0])-1)
	for _, row := range rows {
		for i := range widths {
			widths[i] = max(widths[i], len(row[i]))
		}
	}
	return widths
}

// alignRow pads every non-final column that is followed by content.
func alignRow(row []string, widths []int) string {
	last := len(row) - 1
	for last > 0 && row[last] == "" {
		last--
	}
	var b strings.Builder
	for i := 0; i <= last; i++ {
		cell := row[i]
		if cell == "" && i > 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		if i < last && i < len(widths) {
			b.WriteString(pad(cell, widths[i]))
		} else {
			b.WriteString(cell)
		}
	}
	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func mapAttribute(name string) *schema.Attribute {
	return &schema.Attribute{
		Name:      "map",
		Arguments: []*schema.Argument{{Value: schema.Str(name)}},
		Parens:    true,
	}
}

func attributeRank(name string) int {
	if rank, ok := fieldAttributeRank[name]; ok {
		return rank
	}
	if strings.HasPrefix(name, "db.") {
		return nativeTypeRank
	}
	return otherRank
}

func renderFieldAttributes(attrs []*schema.Attribute) string {
	sorted := make([]*schema.Attribute, len(attrs))
	copy(sorted, attrs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return attributeRank(sorted[i].Name) < attributeRank(sorted[j].Name)
	})
	parts := make([]string, len(sorted))
	for i, a := range sorted {
		parts[i] = renderAttribute(a)
	}
	return strings.Join(parts, " ")
}

func renderFieldType(t schema.FieldType) string {
	name := t.Name
	if t.Unsupported {
		name = "Unsupported(" + quote(t.Name) + ")"
	}
	switch t.Arity {
	case schema.Optional:
		return name + "?"
	case schema.List:
		return name + "[]"
	}
	return name
}

// renderAttribute renders a single-@ attribute; block attributes prepend another @.
func renderAttribute(a *schema.Attribute) string {
	if !a.Parens && len(a.Arguments) == 0 {
		return "@" + a.Name
	}
	return "@" + a.Name + "(" + renderArguments(a.Arguments) + ")"
}

func renderIndex(idx *schema.Index) string {
	fields := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		if len(f.Arguments) > 0 {
			fields[i] = f.Name + "(" + renderArguments(f.Arguments) + ")"
		} else {
			fields[i] = f.Name
		}
	}
	parts := []string{"[" + strings.Join(fields, ", ") + "]"}
	if idx.Name != nil && (idx.Kind == schema.PrimaryIndex || idx.Kind == schema.UniqueIndex) {
		parts = append(parts, "name: "+quote(*idx.Name))
	}
	if idx.DBName != nil {
		parts = append(parts, "map: "+quote(*idx.DBName))
	}
	if len(idx.Arguments) > 0 {
		parts = append(parts, renderArguments(idx.Arguments))
	}
	return "@@" + string(idx.Kind) + "(" + strings.Join(parts, ", ") + ")"
}

func renderArguments(args []*schema.Argument) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		if arg.Name != "" {
			parts[i] = arg.Name + ": " + renderExpr(arg.Value)
		} else {
			parts[i] = renderExpr(arg.Value)
		}
	}
	return strings.Join(parts, ", ")
}

func renderExpr(e schema.Expr) string {
	switch v := e.(type) {
	case *schema.StringValue:
		if v.Raw != "" {
			if decoded, err := unescape(v.Raw); err == nil && decoded == v.Value {
				return `"` + v.Raw + `"`
			}
		}
		return quote(v.Value)
	case *schema.NumberValue:
		return v.Raw
	case *schema.ConstantValue:
		return v.Name
	case *schema.FunctionValue:
		return v.Name + "(" + renderArguments(v.Arguments) + ")"
	case *schema.ArrayValue:
		elems := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = renderExpr(el)
		}
		return "[" + strings.Join(elems, ", ") + "]"
	}
	return ""
}

var stringEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func quote(s string) string {
	return `"` + stringEscaper.Replace(s) + `"`
}
