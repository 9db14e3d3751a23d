package db

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tordrt/prismacase/internal/schema"
)

// BuildSchema turns extracted tables into a Prisma schema that keeps the
// database's own names. Models follow table order; enums come last, sorted.
func BuildSchema(provider string, tables []Table) *schema.Schema {
	s := &schema.Schema{}
	s.Config.Blocks = []*schema.ConfigBlock{
		{
			Kind: schema.GeneratorBlock,
			Name: "client",
			Properties: []*schema.Property{
				{Key: "provider", Value: schema.Str("prisma-client-js")},
			},
		},
		{
			Kind: schema.DatasourceBlock,
			Name: "db",
			Properties: []*schema.Property{
				{Key: "provider", Value: schema.Str(provider)},
				{Key: "url", Value: schema.Func("env", schema.Str("DATABASE_URL"))},
			},
		},
	}

	b := &builder{provider: provider, models: map[string]*schema.Model{}, enums: map[string][]string{}}
	for i := range tables {
		m := b.model(&tables[i])
		s.Datamodel.Blocks = append(s.Datamodel.Blocks, m)
	}
	b.relations(tables)

	enumNames := make([]string, 0, len(b.enums))
	for name := range b.enums {
		enumNames = append(enumNames, name)
	}
	sort.Strings(enumNames)
	for _, name := range enumNames {
		e := &schema.Enum{Name: name}
		for _, v := range b.enums[name] {
			e.Values = append(e.Values, &schema.EnumValue{Name: v})
		}
		s.Datamodel.Blocks = append(s.Datamodel.Blocks, e)
	}
	return s
}

type builder struct {
	provider string
	models   map[string]*schema.Model
	enums    map[string][]string
}

func (b *builder) model(t *Table) *schema.Model {
	m := &schema.Model{Kind: schema.KindModel, Name: t.Name}
	b.models[t.Name] = m

	singlePK := ""
	if len(t.PrimaryKey) == 1 {
		singlePK = t.PrimaryKey[0]
	}

	// A single-column unique index is written as @unique on the field
	uniqueIndex := map[string]*Index{}
	for i := range t.Indexes {
		idx := &t.Indexes[i]
		if idx.IsUnique && len(idx.Columns) == 1 {
			uniqueIndex[idx.Columns[0]] = idx
		}
	}

	for _, col := range t.Columns {
		f := &schema.Field{Name: col.Name}
		f.Type, f.Attributes = b.fieldType(col)
		if col.Nullable && f.Type.Arity != schema.List {
			f.Type.Arity = schema.Optional
		}

		var attrs []*schema.Attribute
		if col.Name == singlePK {
			attrs = append(attrs, &schema.Attribute{Name: "id"})
		}
		if def := defaultExpr(col, f.Type); def != nil {
			attrs = append(attrs, &schema.Attribute{
				Name:      "default",
				Arguments: []*schema.Argument{{Value: def}},
				Parens:    true,
			})
		}
		if col.Name != singlePK {
			if idx, ok := uniqueIndex[col.Name]; ok {
				attrs = append(attrs, uniqueAttribute(idx.Name))
			} else if col.IsUnique {
				attrs = append(attrs, uniqueAttribute(""))
			}
		}
		f.Attributes = append(attrs, f.Attributes...)
		m.Fields = append(m.Fields, f)
	}

	if len(t.PrimaryKey) > 1 {
		m.Indexes = append(m.Indexes, &schema.Index{Kind: schema.PrimaryIndex, Fields: indexFields(t.PrimaryKey)})
	}
	for i := range t.Indexes {
		idx := &t.Indexes[i]
		if idx.IsUnique && len(idx.Columns) == 1 {
			continue
		}
		kind := schema.NormalIndex
		if idx.IsUnique {
			kind = schema.UniqueIndex
		}
		out := &schema.Index{Kind: kind, Fields: indexFields(idx.Columns)}
		if idx.Name != "" {
			out.DBName = schema.StringPtr(idx.Name)
		}
		m.Indexes = append(m.Indexes, out)
	}
	return m
}

func uniqueAttribute(name string) *schema.Attribute {
	attr := &schema.Attribute{Name: "unique"}
	if name != "" {
		attr.Arguments = []*schema.Argument{{Name: "map", Value: schema.Str(name)}}
		attr.Parens = true
	}
	return attr
}

func indexFields(columns []string) []*schema.IndexField {
	fields := make([]*schema.IndexField, len(columns))
	for i, c := range columns {
		fields[i] = &schema.IndexField{Name: c}
	}
	return fields
}

// relations adds the relation field on both sides of every foreign key
func (b *builder) relations(tables []Table) {
	pairs := map[[2]string]int{}
	for _, t := range tables {
		for _, rel := range t.Relations {
			pairs[[2]string{t.Name, rel.TargetTable}]++
		}
	}

	for i := range tables {
		t := &tables[i]
		source := b.models[t.Name]
		for _, rel := range t.Relations {
			target, ok := b.models[rel.TargetTable]
			if !ok || source.FindField(rel.SourceColumn) == nil {
				continue
			}

			relationName := ""
			if pairs[[2]string{t.Name, rel.TargetTable}] > 1 || t.Name == rel.TargetTable {
				relationName = fmt.Sprintf("%s_%sTo%s", t.Name, rel.SourceColumn, rel.TargetTable)
			}

			forward := &schema.Field{
				Name: uniqueFieldName(source, forwardCandidates(rel)...),
				Type: schema.FieldType{Name: rel.TargetTable},
			}
			if col := t.Column(rel.SourceColumn); col != nil && col.Nullable {
				forward.Type.Arity = schema.Optional
			}
			relAttr := &schema.Attribute{Name: "relation", Parens: true}
			if relationName != "" {
				relAttr.Arguments = append(relAttr.Arguments, &schema.Argument{Value: schema.Str(relationName)})
			}
			relAttr.Arguments = append(relAttr.Arguments,
				&schema.Argument{Name: "fields", Value: schema.Array(schema.Const(rel.SourceColumn))},
				&schema.Argument{Name: "references", Value: schema.Array(schema.Const(rel.TargetColumn))},
			)
			forward.Attributes = []*schema.Attribute{relAttr}
			source.Fields = append(source.Fields, forward)

			backName := t.Name
			if relationName != "" {
				backName = relationName
			}
			back := &schema.Field{
				Name: uniqueFieldName(target, backName, backName+"_"+rel.SourceColumn),
				Type: schema.FieldType{Name: t.Name, Arity: schema.List},
			}
			if col := t.Column(rel.SourceColumn); col != nil && col.IsUnique {
				back.Type.Arity = schema.Optional
			}
			if relationName != "" {
				back.Attributes = []*schema.Attribute{{
					Name:      "relation",
					Arguments: []*schema.Argument{{Value: schema.Str(relationName)}},
					Parens:    true,
				}}
			}
			target.Fields = append(target.Fields, back)
		}
	}
}

func forwardCandidates(rel Relation) []string {
	var names []string
	if base := strings.TrimSuffix(rel.SourceColumn, "_id"); base != rel.SourceColumn && base != "" {
		names = append(names, base)
	}
	return append(names, rel.TargetTable, rel.TargetTable+"_"+rel.SourceColumn)
}

// uniqueFieldName returns the first candidate not used by a field of m,
// falling back to numbered variants of the last one.
func uniqueFieldName(m *schema.Model, candidates ...string) string {
	for _, c := range candidates {
		if m.FindField(c) == nil {
			return c
		}
	}
	last := candidates[len(candidates)-1]
	for n := 2; ; n++ {
		name := fmt.Sprintf("%s_%d", last, n)
		if m.FindField(name) == nil {
			return name
		}
	}
}

// fieldType maps a column type to a Prisma scalar plus an optional native
// type attribute. Unknown types become Unsupported("...").
func (b *builder) fieldType(col Column) (schema.FieldType, []*schema.Attribute) {
	if col.EnumType != "" && len(col.EnumValues) > 0 {
		b.enums[col.EnumType] = col.EnumValues
		return schema.FieldType{Name: col.EnumType}, nil
	}

	var scalar string
	var native *schema.Attribute
	switch b.provider {
	case ProviderPostgres:
		raw := col.Type
		list := strings.HasSuffix(raw, "[]")
		scalar, native = postgresScalar(strings.TrimSuffix(raw, "[]"))
		if scalar != "" && list {
			return schema.FieldType{Name: scalar, Arity: schema.List}, nativeAttrs(native)
		}
	case ProviderMySQL:
		scalar, native = mysqlScalar(col.Type)
	default:
		scalar = sqliteScalar(col.Type)
	}

	if scalar == "" {
		return schema.FieldType{Name: col.Type, Unsupported: true}, nil
	}
	return schema.FieldType{Name: scalar}, nativeAttrs(native)
}

func nativeAttrs(native *schema.Attribute) []*schema.Attribute {
	if native == nil {
		return nil
	}
	return []*schema.Attribute{native}
}

// nativeType builds @db.Name(args...) from raw numeric arguments
func nativeType(name string, args ...string) *schema.Attribute {
	attr := &schema.Attribute{Name: "db." + name}
	for _, a := range args {
		attr.Arguments = append(attr.Arguments, &schema.Argument{Value: &schema.NumberValue{Raw: a}})
	}
	attr.Parens = len(args) > 0
	return attr
}

// splitType separates "varchar(255)" into "varchar" and ["255"]
func splitType(raw string) (string, []string) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	open := strings.Index(raw, "(")
	if open == -1 || !strings.HasSuffix(raw, ")") {
		return raw, nil
	}
	var params []string
	for _, p := range strings.Split(raw[open+1:len(raw)-1], ",") {
		params = append(params, strings.TrimSpace(p))
	}
	return strings.TrimSpace(raw[:open]), params
}

func postgresScalar(raw string) (string, *schema.Attribute) {
	base, params := splitType(raw)
	switch base {
	case "integer", "int", "int4", "serial":
		return "Int", nil
	case "smallint", "int2":
		return "Int", nativeType("SmallInt")
	case "bigint", "int8", "bigserial":
		return "BigInt", nil
	case "text":
		return "String", nil
	case "varchar":
		return "String", nativeType("VarChar", params...)
	case "char", "bpchar":
		return "String", nativeType("Char", params...)
	case "uuid":
		return "String", nativeType("Uuid")
	case "xml":
		return "String", nativeType("Xml")
	case "boolean", "bool":
		return "Boolean", nil
	case "timestamp":
		return "DateTime", nativeType("Timestamp", "6")
	case "timestamptz":
		return "DateTime", nativeType("Timestamptz", "6")
	case "date":
		return "DateTime", nativeType("Date")
	case "time":
		return "DateTime", nativeType("Time", "6")
	case "timetz":
		return "DateTime", nativeType("Timetz", "6")
	case "numeric", "decimal":
		return "Decimal", nativeType("Decimal", params...)
	case "real", "float4":
		return "Float", nativeType("Real")
	case "double precision", "float8":
		return "Float", nil
	case "json":
		return "Json", nativeType("Json")
	case "jsonb":
		return "Json", nil
	case "bytea":
		return "Bytes", nil
	}
	return "", nil
}

func mysqlScalar(raw string) (string, *schema.Attribute) {
	cleaned := strings.ToLower(raw)
	cleaned = strings.ReplaceAll(cleaned, " unsigned", "")
	cleaned = strings.ReplaceAll(cleaned, " zerofill", "")
	base, params := splitType(cleaned)

	switch base {
	case "tinyint":
		if len(params) == 1 && params[0] == "1" {
			return "Boolean", nil
		}
		return "Int", nativeType("TinyInt")
	case "bool", "boolean":
		return "Boolean", nil
	case "smallint":
		return "Int", nativeType("SmallInt")
	case "mediumint":
		return "Int", nativeType("MediumInt")
	case "int", "integer":
		return "Int", nil
	case "bigint":
		return "BigInt", nil
	case "varchar":
		return "String", nativeType("VarChar", params...)
	case "char":
		return "String", nativeType("Char", params...)
	case "text":
		return "String", nativeType("Text")
	case "tinytext":
		return "String", nativeType("TinyText")
	case "mediumtext":
		return "String", nativeType("MediumText")
	case "longtext":
		return "String", nativeType("LongText")
	case "datetime":
		return "DateTime", nativeType("DateTime", precision(params))
	case "timestamp":
		return "DateTime", nativeType("Timestamp", precision(params))
	case "date":
		return "DateTime", nativeType("Date")
	case "time":
		return "DateTime", nativeType("Time", precision(params))
	case "decimal", "numeric":
		return "Decimal", nativeType("Decimal", params...)
	case "double":
		return "Float", nil
	case "float":
		return "Float", nativeType("Float")
	case "json":
		return "Json", nil
	case "blob", "tinyblob", "mediumblob", "longblob", "binary", "varbinary":
		return "Bytes", nil
	}
	return "", nil
}

func precision(params []string) string {
	if len(params) == 1 {
		return params[0]
	}
	return "0"
}

// sqliteScalar follows SQLite's column affinity rules
func sqliteScalar(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case upper == "BIGINT":
		return "BigInt"
	case upper == "BOOLEAN" || upper == "BOOL":
		return "Boolean"
	case strings.Contains(upper, "INT"):
		return "Int"
	case strings.HasPrefix(upper, "DATE") || strings.HasPrefix(upper, "TIMESTAMP"):
		return "DateTime"
	case strings.Contains(upper, "CHAR") || strings.Contains(upper, "CLOB") || strings.Contains(upper, "TEXT"):
		return "String"
	case upper == "" || strings.Contains(upper, "BLOB"):
		return "Bytes"
	case strings.Contains(upper, "REAL") || strings.Contains(upper, "FLOA") || strings.Contains(upper, "DOUB"):
		return "Float"
	case strings.HasPrefix(upper, "DECIMAL") || strings.HasPrefix(upper, "NUMERIC"):
		return "Decimal"
	}
	return ""
}

// defaultExpr converts a column default into a @default argument, or nil
func defaultExpr(col Column, t schema.FieldType) schema.Expr {
	if col.AutoIncrement {
		return schema.Func("autoincrement")
	}
	if col.DefaultValue == nil {
		return nil
	}
	raw := strings.TrimSpace(*col.DefaultValue)
	if raw == "" || strings.EqualFold(raw, "null") || strings.HasPrefix(strings.ToUpper(raw), "NULL::") {
		return nil
	}

	lower := strings.ToLower(raw)
	if t.Name == "DateTime" && (lower == "now()" || strings.HasPrefix(lower, "current_timestamp") || lower == "localtimestamp") {
		return schema.Func("now")
	}

	literal, quoted := unquoteDefault(raw)
	isEnum := col.EnumType != "" && len(col.EnumValues) > 0

	switch {
	case isEnum:
		return schema.Const(literal)
	case t.Name == "Boolean":
		switch strings.ToLower(literal) {
		case "true", "1", "b'1'":
			return schema.Const("true")
		case "false", "0", "b'0'":
			return schema.Const("false")
		}
	case t.Name == "Int" || t.Name == "BigInt" || t.Name == "Float" || t.Name == "Decimal":
		if _, err := strconv.ParseFloat(literal, 64); err == nil {
			return &schema.NumberValue{Raw: literal}
		}
	case t.Name == "String" && (quoted || !looksLikeExpression(raw)):
		return schema.Str(literal)
	}

	return schema.Func("dbgenerated", schema.Str(raw))
}

// unquoteDefault strips SQL quoting and PostgreSQL casts, e.g. 'a''b'::text -> a'b
func unquoteDefault(raw string) (string, bool) {
	value := raw
	if strings.HasPrefix(value, "(") && strings.HasSuffix(value, ")") {
		value = strings.TrimSpace(value[1 : len(value)-1])
	}
	if strings.HasPrefix(value, "'") {
		if end := strings.LastIndex(value, "'"); end > 0 {
			return strings.ReplaceAll(value[1:end], "''", "'"), true
		}
	}
	if cast := strings.Index(value, "::"); cast > 0 {
		value = value[:cast]
	}
	return value, false
}

func looksLikeExpression(raw string) bool {
	return strings.ContainsAny(raw, "()") || strings.Contains(raw, "::")
}
