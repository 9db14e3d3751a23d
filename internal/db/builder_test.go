package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/prismacase/internal/psl"
	"github.com/tordrt/prismacase/internal/schema"
)

func strPtr(s string) *string { return &s }

func sampleTables() []Table {
	return []Table{
		{
			Name: "users",
			Columns: []Column{
				{Name: "id", Type: "integer", AutoIncrement: true, DefaultValue: strPtr("nextval('users_id_seq'::regclass)")},
				{Name: "email", Type: "varchar(255)", IsUnique: true},
				{Name: "status", Type: "user_status", EnumType: "user_status", EnumValues: []string{"active", "banned"}, DefaultValue: strPtr("'active'::user_status")},
				{Name: "created_at", Type: "timestamp", DefaultValue: strPtr("CURRENT_TIMESTAMP")},
				{Name: "nickname", Type: "text", Nullable: true},
			},
			PrimaryKey: []string{"id"},
			Indexes:    []Index{{Name: "users_email_key", Columns: []string{"email"}, IsUnique: true}},
		},
		{
			Name: "posts",
			Columns: []Column{
				{Name: "id", Type: "integer", AutoIncrement: true},
				{Name: "author_id", Type: "integer"},
				{Name: "editor_id", Type: "integer", Nullable: true},
				{Name: "title", Type: "text", DefaultValue: strPtr("'it''s'::text")},
			},
			PrimaryKey: []string{"id"},
			Relations: []Relation{
				{SourceColumn: "author_id", TargetTable: "users", TargetColumn: "id"},
				{SourceColumn: "editor_id", TargetTable: "users", TargetColumn: "id"},
			},
			Indexes: []Index{{Name: "idx_posts_author", Columns: []string{"author_id", "title"}}},
		},
		{
			Name: "post_tags",
			Columns: []Column{
				{Name: "post_id", Type: "integer"},
				{Name: "tag", Type: "citext"},
			},
			PrimaryKey: []string{"post_id", "tag"},
			Relations:  []Relation{{SourceColumn: "post_id", TargetTable: "posts", TargetColumn: "id"}},
		},
	}
}

func TestBuildSchemaConfiguration(t *testing.T) {
	s := BuildSchema(ProviderPostgres, nil)

	ds := s.Config.Datasource()
	require.NotNil(t, ds)
	assert.Equal(t, "db", ds.Name)
	assert.Equal(t, schema.Str(ProviderPostgres), ds.Properties[0].Value)
	assert.Equal(t, schema.Func("env", schema.Str("DATABASE_URL")), ds.Properties[1].Value)
	assert.Empty(t, s.Datamodel.Blocks)
}

func TestBuildSchemaModels(t *testing.T) {
	s := BuildSchema(ProviderPostgres, sampleTables())

	models := s.Datamodel.Models()
	require.Len(t, models, 3)
	assert.Equal(t, "users", models[0].Name)
	assert.Equal(t, "posts", models[1].Name)
	assert.Equal(t, "post_tags", models[2].Name)

	users := models[0]
	id := users.FindField("id")
	require.NotNil(t, id)
	assert.Equal(t, "Int", id.Type.Name)
	require.NotNil(t, id.Attribute("id"))
	assert.Equal(t, schema.Func("autoincrement"), id.Attribute("default").Arguments[0].Value)

	email := users.FindField("email")
	assert.Equal(t, "String", email.Type.Name)
	unique := email.Attribute("unique")
	require.NotNil(t, unique)
	assert.Equal(t, schema.Str("users_email_key"), unique.Arg("map").Value)
	varchar := email.Attribute("db.VarChar")
	require.NotNil(t, varchar)
	assert.Equal(t, &schema.NumberValue{Raw: "255"}, varchar.Arguments[0].Value)

	status := users.FindField("status")
	assert.Equal(t, "user_status", status.Type.Name)
	assert.Equal(t, schema.Const("active"), status.Attribute("default").Arguments[0].Value)

	createdAt := users.FindField("created_at")
	assert.Equal(t, "DateTime", createdAt.Type.Name)
	assert.Equal(t, schema.Func("now"), createdAt.Attribute("default").Arguments[0].Value)
	assert.NotNil(t, createdAt.Attribute("db.Timestamp"))

	assert.Equal(t, schema.Optional, users.FindField("nickname").Type.Arity)
	assert.Empty(t, users.Indexes)

	posts := models[1]
	assert.Equal(t, schema.Str("it's"), posts.FindField("title").Attribute("default").Arguments[0].Value)
	require.Len(t, posts.Indexes, 1)
	assert.Equal(t, schema.NormalIndex, posts.Indexes[0].Kind)
	assert.Equal(t, []string{"author_id", "title"}, posts.Indexes[0].FieldNames())
	assert.Equal(t, "idx_posts_author", *posts.Indexes[0].DBName)

	tags := models[2]
	require.Len(t, tags.Indexes, 1)
	assert.Equal(t, schema.PrimaryIndex, tags.Indexes[0].Kind)
	assert.Equal(t, []string{"post_id", "tag"}, tags.Indexes[0].FieldNames())
	tag := tags.FindField("tag")
	assert.True(t, tag.Type.Unsupported)
	assert.Equal(t, "citext", tag.Type.Name)

	enums := s.Datamodel.Enums()
	require.Len(t, enums, 1)
	assert.Equal(t, "user_status", enums[0].Name)
	require.Len(t, enums[0].Values, 2)
	assert.Equal(t, "banned", enums[0].Values[1].Name)
}

func TestBuildSchemaRelations(t *testing.T) {
	s := BuildSchema(ProviderPostgres, sampleTables())
	users := s.Datamodel.FindModel("users")
	posts := s.Datamodel.FindModel("posts")
	tags := s.Datamodel.FindModel("post_tags")

	// Two foreign keys to the same table need relation names
	author := posts.FindField("author")
	require.NotNil(t, author)
	assert.Equal(t, "users", author.Type.Name)
	assert.Equal(t, schema.Required, author.Type.Arity)
	rel := author.Attribute("relation")
	require.NotNil(t, rel)
	assert.Equal(t, schema.Str("posts_author_idTousers"), rel.Arguments[0].Value)
	assert.Equal(t, schema.Array(schema.Const("author_id")), rel.Arg("fields").Value)
	assert.Equal(t, schema.Array(schema.Const("id")), rel.Arg("references").Value)

	editor := posts.FindField("editor")
	require.NotNil(t, editor)
	assert.Equal(t, schema.Optional, editor.Type.Arity)

	back := users.FindField("posts_author_idTousers")
	require.NotNil(t, back)
	assert.Equal(t, schema.List, back.Type.Arity)
	assert.NotNil(t, users.FindField("posts_editor_idTousers"))

	// A single foreign key stays unnamed and the back relation takes the table name
	post := tags.FindField("post")
	require.NotNil(t, post)
	assert.Len(t, post.Attribute("relation").Arguments, 2)
	back = posts.FindField("post_tags")
	require.NotNil(t, back)
	assert.Nil(t, back.Attribute("relation"))
}

func TestBuildSchemaSkipsMissingTargets(t *testing.T) {
	tables := sampleTables()
	s := BuildSchema(ProviderPostgres, FilterTables(tables, []string{"users"}))

	posts := s.Datamodel.FindModel("posts")
	require.NotNil(t, posts)
	assert.Nil(t, posts.FindField("author"))
	assert.Nil(t, s.Datamodel.FindModel("users"))
}

func TestBuildSchemaRendersParsableOutput(t *testing.T) {
	s := BuildSchema(ProviderPostgres, sampleTables())

	out := psl.Render(s)
	reparsed, err := psl.Parse(out)
	require.NoError(t, err)
	assert.Equal(t, out, psl.Render(reparsed))
}

func TestMySQLScalar(t *testing.T) {
	tests := []struct {
		raw    string
		scalar string
		native string
	}{
		{"int(11)", "Int", ""},
		{"int unsigned", "Int", ""},
		{"tinyint(1)", "Boolean", ""},
		{"tinyint(4)", "Int", "db.TinyInt"},
		{"bigint(20)", "BigInt", ""},
		{"varchar(255)", "String", "db.VarChar"},
		{"longtext", "String", "db.LongText"},
		{"timestamp", "DateTime", "db.Timestamp"},
		{"datetime(3)", "DateTime", "db.DateTime"},
		{"decimal(10,2)", "Decimal", "db.Decimal"},
		{"json", "Json", ""},
		{"longblob", "Bytes", ""},
		{"geometry", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			scalar, native := mysqlScalar(tt.raw)
			assert.Equal(t, tt.scalar, scalar)
			if tt.native == "" {
				assert.Nil(t, native)
				return
			}
			require.NotNil(t, native)
			assert.Equal(t, tt.native, native.Name)
		})
	}
}

func TestMySQLTimestampPrecision(t *testing.T) {
	_, native := mysqlScalar("timestamp")
	require.NotNil(t, native)
	assert.Equal(t, []*schema.Argument{{Value: &schema.NumberValue{Raw: "0"}}}, native.Arguments)

	_, native = mysqlScalar("decimal(10, 2)")
	require.NotNil(t, native)
	require.Len(t, native.Arguments, 2)
	assert.Equal(t, &schema.NumberValue{Raw: "2"}, native.Arguments[1].Value)
}

func TestPostgresArrays(t *testing.T) {
	b := &builder{provider: ProviderPostgres, enums: map[string][]string{}}

	ft, attrs := b.fieldType(Column{Name: "tags", Type: "text[]"})
	assert.Equal(t, schema.FieldType{Name: "String", Arity: schema.List}, ft)
	assert.Empty(t, attrs)

	ft, attrs = b.fieldType(Column{Name: "ids", Type: "uuid[]", Nullable: true})
	assert.Equal(t, schema.List, ft.Arity)
	require.Len(t, attrs, 1)
	assert.Equal(t, "db.Uuid", attrs[0].Name)
}

func TestSQLiteScalar(t *testing.T) {
	tests := map[string]string{
		"INTEGER":      "Int",
		"BIGINT":       "BigInt",
		"VARCHAR(100)": "String",
		"text":         "String",
		"BOOLEAN":      "Boolean",
		"DATETIME":     "DateTime",
		"REAL":         "Float",
		"DECIMAL(8,2)": "Decimal",
		"BLOB":         "Bytes",
		"":             "Bytes",
		"GEOMETRY":     "",
	}

	for raw, want := range tests {
		assert.Equal(t, want, sqliteScalar(raw), raw)
	}
}

func TestDefaultExpr(t *testing.T) {
	tests := []struct {
		name string
		col  Column
		typ  string
		want schema.Expr
	}{
		{"none", Column{}, "Int", nil},
		{"null", Column{DefaultValue: strPtr("NULL")}, "String", nil},
		{"postgres null cast", Column{DefaultValue: strPtr("NULL::character varying")}, "String", nil},
		{"autoincrement", Column{AutoIncrement: true}, "Int", schema.Func("autoincrement")},
		{"now", Column{DefaultValue: strPtr("now()")}, "DateTime", schema.Func("now")},
		{"current timestamp", Column{DefaultValue: strPtr("CURRENT_TIMESTAMP(3)")}, "DateTime", schema.Func("now")},
		{"number", Column{DefaultValue: strPtr("42")}, "Int", &schema.NumberValue{Raw: "42"}},
		{"sqlite quoted number", Column{DefaultValue: strPtr("'1.5'")}, "Float", &schema.NumberValue{Raw: "1.5"}},
		{"boolean", Column{DefaultValue: strPtr("true")}, "Boolean", schema.Const("true")},
		{"mysql boolean", Column{DefaultValue: strPtr("0")}, "Boolean", schema.Const("false")},
		{"mysql bare string", Column{DefaultValue: strPtr("pending")}, "String", schema.Str("pending")},
		{"quoted string", Column{DefaultValue: strPtr("'a''b'::text")}, "String", schema.Str("a'b")},
		{"enum", Column{EnumType: "e", EnumValues: []string{"x"}, DefaultValue: strPtr("'x'::e")}, "e", schema.Const("x")},
		{"expression", Column{DefaultValue: strPtr("gen_random_uuid()")}, "String", schema.Func("dbgenerated", schema.Str("gen_random_uuid()"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := defaultExpr(tt.col, schema.FieldType{Name: tt.typ})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUniqueFieldName(t *testing.T) {
	m := &schema.Model{Fields: []*schema.Field{{Name: "user"}, {Name: "users"}}}

	assert.Equal(t, "owner", uniqueFieldName(m, "owner", "users"))
	assert.Equal(t, "users_user_id", uniqueFieldName(m, "user", "users", "users_user_id"))

	m.Fields = append(m.Fields, &schema.Field{Name: "users_user_id"})
	assert.Equal(t, "users_user_id_2", uniqueFieldName(m, "user", "users", "users_user_id"))
}
