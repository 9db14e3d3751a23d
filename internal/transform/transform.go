// Package transform renames models, fields and indexes of a parsed schema
// to client-facing camel case while recording the original names as
// @map / @@map annotations.
package transform

import (
	"github.com/tordrt/prismacase/internal/naming"
	"github.com/tordrt/prismacase/internal/schema"
)

// Options configures the transformer.
type Options struct {
	// Converter supplies the casing rules. Nil uses the plain rules.
	Converter *naming.Converter

	// SkipUnchangedMaps omits the mapping annotation when conversion leaves
	// a name as it was. By default the original name is always recorded.
	SkipUnchangedMaps bool

	// ExcludeModels lists models (by their source name) left untouched.
	ExcludeModels []string
}

// Transformer rewrites identifiers of a schema in place.
type Transformer struct {
	conv    *naming.Converter
	skip    bool
	exclude map[string]bool
}

// New creates a Transformer.
func New(opts *Options) *Transformer {
	if opts == nil {
		opts = &Options{}
	}
	t := &Transformer{
		conv:    opts.Converter,
		skip:    opts.SkipUnchangedMaps,
		exclude: make(map[string]bool, len(opts.ExcludeModels)),
	}
	for _, name := range opts.ExcludeModels {
		t.exclude[name] = true
	}
	return t
}

// Apply mutates s in one ordered pass and reports every rename. The caller
// must hold the only reference to s for the duration of the call.
func (t *Transformer) Apply(s *schema.Schema) *Report {
	report := &Report{}
	models := s.Datamodel.Models()

	// Relation fields refer to models by type name, so fix the new model
	// names before any field is visited.
	modelNames := make(map[string]string, len(models))
	for _, m := range models {
		if t.exclude[m.Name] {
			modelNames[m.Name] = m.Name
			continue
		}
		modelNames[m.Name] = t.conv.Upper(m.Name)
	}

	for _, m := range models {
		if t.exclude[m.Name] {
			t.retargetRelations(m, modelNames, false)
			continue
		}
		original := m.Name
		m.Name = modelNames[original]
		t.recordMapping(&m.DatabaseName, original, m.Name)
		report.add(RenamedModel, "", original, m.Name)

		for _, f := range m.Fields {
			// Relation fields have no column of their own
			_, relation := modelNames[f.Type.Name]
			t.renameField(f, m.Name, !relation || f.Type.Unsupported, report)
		}
		t.retargetRelations(m, modelNames, true)

		for _, idx := range m.Indexes {
			if idx.DBName != nil {
				previous := *idx.DBName
				if idx.Name != nil {
					previous = *idx.Name
				}
				name := t.conv.Lower(*idx.DBName)
				idx.Name = &name
				report.add(RenamedIndex, m.Name, previous, name)
			}
			for _, field := range idx.Fields {
				field.Name = t.conv.Lower(field.Name)
			}
		}
	}

	return report
}

func (t *Transformer) renameField(f *schema.Field, model string, mapped bool, report *Report) {
	original := f.Name
	f.Name = t.conv.Lower(original)
	if mapped {
		t.recordMapping(&f.DatabaseName, original, f.Name)
	}
	report.add(RenamedField, model, original, f.Name)
}

// recordMapping stores the original name as the database name. An existing
// mapping already names the storage identifier and is kept as is.
func (t *Transformer) recordMapping(dbName **string, original, renamed string) {
	if *dbName != nil {
		return
	}
	if t.skip && original == renamed {
		return
	}
	*dbName = schema.StringPtr(original)
}

// retargetRelations points relation field types at the renamed models and
// keeps @relation(fields: [...], references: [...]) in step with the renamed
// scalar fields on both sides of the relation. local reports whether the
// fields of m itself were renamed.
func (t *Transformer) retargetRelations(m *schema.Model, modelNames map[string]string, local bool) {
	for _, f := range m.Fields {
		if f.Type.Unsupported {
			continue
		}
		target := f.Type.Name
		renamed, isModel := modelNames[target]
		if isModel {
			f.Type.Name = renamed
		}
		remote := isModel && !t.exclude[target]

		rel := f.Attribute("relation")
		if rel == nil {
			continue
		}
		if arg := rel.Arg("fields"); arg != nil && local {
			t.renameList(arg.Value)
		}
		if arg := rel.Arg("references"); arg != nil && remote {
			t.renameList(arg.Value)
		}
	}
}

func (t *Transformer) renameList(e schema.Expr) {
	arr, ok := e.(*schema.ArrayValue)
	if !ok {
		return
	}
	for _, elem := range arr.Elements {
		if c, ok := elem.(*schema.ConstantValue); ok {
			c.Name = t.conv.Lower(c.Name)
		}
	}
}
