// Package schema holds the in-memory form of a parsed Prisma schema.
//
// Values are produced by psl.Parse, mutated in place by the naming
// transformer and consumed by psl.Render. A Schema is owned by a single
// pipeline run and must not be shared between goroutines.
package schema

// Schema represents one parsed schema document
type Schema struct {
	Config    Configuration
	Datamodel Datamodel
	// Comments holds free-standing comments found after the last block.
	Comments []string
}

// Configuration holds the datasource and generator blocks
type Configuration struct {
	Blocks []*ConfigBlock
}

// ConfigBlockKind distinguishes datasource from generator blocks
type ConfigBlockKind string

const (
	DatasourceBlock ConfigBlockKind = "datasource"
	GeneratorBlock  ConfigBlockKind = "generator"
)

// ConfigBlock represents a datasource or generator declaration
type ConfigBlock struct {
	Kind       ConfigBlockKind
	Name       string
	Properties []*Property
	Comments   []string
	// TrailingComments are comments between the last property and the closing brace.
	TrailingComments []string
}

// Property is a single key = value line inside a config block
type Property struct {
	Key      string
	Value    Expr
	Comments []string
}

// Datasource returns the first datasource block, or nil
func (c *Configuration) Datasource() *ConfigBlock {
	for _, b := range c.Blocks {
		if b.Kind == DatasourceBlock {
			return b
		}
	}
	return nil
}

// Block is a top-level datamodel declaration: *Model, *Enum or *CompositeType
type Block interface {
	BlockName() string
}

// Datamodel holds the top-level declarations in source order
type Datamodel struct {
	Blocks []Block
}

// Models returns models and views in declaration order
func (d *Datamodel) Models() []*Model {
	var models []*Model
	for _, b := range d.Blocks {
		if m, ok := b.(*Model); ok {
			models = append(models, m)
		}
	}
	return models
}

// Enums returns enums in declaration order
func (d *Datamodel) Enums() []*Enum {
	var enums []*Enum
	for _, b := range d.Blocks {
		if e, ok := b.(*Enum); ok {
			enums = append(enums, e)
		}
	}
	return enums
}

// FindModel returns the model with the given name, or nil
func (d *Datamodel) FindModel(name string) *Model {
	for _, m := range d.Models() {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ModelKind distinguishes models from views
type ModelKind string

const (
	KindModel ModelKind = "model"
	KindView  ModelKind = "view"
)

// Model represents a model or view block
type Model struct {
	Kind ModelKind
	Name string
	// DatabaseName is the @@map value. Nil means the storage name is Name.
	DatabaseName *string
	// MapComments are the comments written above the @@map line and
	// MapTrailingComment the one after it.
	MapComments        []string
	MapTrailingComment string
	Fields             []*Field
	Indexes      []*Index
	// Attributes are block attributes other than @@map and the index family.
	Attributes    []*Attribute
	Documentation []string
	Comments      []string
	// TrailingComments are comments between the last member and the closing brace.
	TrailingComments []string
}

// BlockName implements Block
func (m *Model) BlockName() string { return m.Name }

// StorageName returns the name used in the database
func (m *Model) StorageName() string {
	if m.DatabaseName != nil {
		return *m.DatabaseName
	}
	return m.Name
}

// FindField returns the field with the given name, or nil
func (m *Model) FindField(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Arity describes whether a field is required, optional or a list
type Arity int

const (
	Required Arity = iota
	Optional
	List
)

// FieldType is the declared type of a field
type FieldType struct {
	Name  string
	Arity Arity
	// Unsupported marks Unsupported("...") types; Name then holds the quoted type text.
	Unsupported bool
}

// Field represents a field of a model, view or composite type
type Field struct {
	Name string
	// DatabaseName is the @map value. Nil means the column name is Name.
	DatabaseName    *string
	Type            FieldType
	Attributes      []*Attribute
	Documentation   []string
	Comments        []string
	TrailingComment string
}

// Attribute returns the first attribute with the given name, or nil
func (f *Field) Attribute(name string) *Attribute {
	for _, a := range f.Attributes {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// IndexKind identifies the block attribute an index came from
type IndexKind string

const (
	PrimaryIndex  IndexKind = "id"
	UniqueIndex   IndexKind = "unique"
	NormalIndex   IndexKind = "index"
	FulltextIndex IndexKind = "fulltext"
)

// Index represents @@id, @@unique, @@index or @@fulltext
type Index struct {
	Kind IndexKind
	// Name is the client-facing name (name: argument).
	Name *string
	// DBName is the constraint name in the database (map: argument).
	DBName *string
	Fields []*IndexField
	// Arguments holds the remaining arguments such as type: or clustered:.
	Arguments       []*Argument
	Comments        []string
	TrailingComment string
}

// IndexField references a field by name from an index
type IndexField struct {
	Name string
	// Arguments holds per-field options such as sort: or length:.
	Arguments []*Argument
}

// FieldNames returns the referenced field names in order
func (i *Index) FieldNames() []string {
	names := make([]string, len(i.Fields))
	for n, f := range i.Fields {
		names[n] = f.Name
	}
	return names
}

// Attribute is a field (@name) or block (@@name) attribute
type Attribute struct {
	// Name excludes the leading @ or @@, e.g. "default" or "db.VarChar".
	Name      string
	Arguments []*Argument
	// Parens records whether the attribute was written with an argument list.
	Parens bool
	// Comments precede a block attribute line, including comments written
	// inside its argument list. TrailingComment follows it on the same line.
	Comments        []string
	TrailingComment string
}

// Argument is a positional (empty Name) or named attribute argument
type Argument struct {
	Name  string
	Value Expr
}

// Arg returns the named argument, or nil
func (a *Attribute) Arg(name string) *Argument {
	for _, arg := range a.Arguments {
		if arg.Name == name {
			return arg
		}
	}
	return nil
}

// Enum represents an enum block
type Enum struct {
	Name               string
	DatabaseName       *string
	MapComments        []string
	MapTrailingComment string
	Values             []*EnumValue
	Attributes       []*Attribute
	Documentation    []string
	Comments         []string
	TrailingComments []string
}

// BlockName implements Block
func (e *Enum) BlockName() string { return e.Name }

// EnumValue is one member of an enum
type EnumValue struct {
	Name            string
	DatabaseName    *string
	Attributes      []*Attribute
	Documentation   []string
	Comments        []string
	TrailingComment string
}

// CompositeType represents a type block
type CompositeType struct {
	Name             string
	Fields           []*Field
	Attributes       []*Attribute
	Documentation    []string
	Comments         []string
	TrailingComments []string
}

// BlockName implements Block
func (c *CompositeType) BlockName() string { return c.Name }

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}
