package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name         string
		url          string
		wantProvider string
		wantConn     string
		wantErr      bool
	}{
		{"postgres", "postgres://u:p@localhost:5432/app", ProviderPostgres, "postgres://u:p@localhost:5432/app", false},
		{"postgresql", "postgresql://localhost/app", ProviderPostgres, "postgresql://localhost/app", false},
		{"mysql", "mysql://u:p@tcp(localhost:3306)/app", ProviderMySQL, "u:p@tcp(localhost:3306)/app", false},
		{"sqlite", "sqlite://data/app.db", ProviderSQLite, "data/app.db", false},
		{"file", "file:app.db?mode=ro", ProviderSQLite, "file:app.db?mode=ro", false},
		{"empty", "", "", "", true},
		{"unknown scheme", "mongodb://localhost", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, conn, err := ParseDatabaseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, provider)
			assert.Equal(t, tt.wantConn, conn)
		})
	}
}

func TestParseDatabaseName(t *testing.T) {
	name, err := ParseDatabaseName("u:p@tcp(localhost:3306)/shop?parseTime=true")
	require.NoError(t, err)
	assert.Equal(t, "shop", name)

	_, err = ParseDatabaseName("u:p@tcp(localhost:3306)/")
	assert.Error(t, err)
}

func TestFilterTables(t *testing.T) {
	tables := []Table{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	assert.Equal(t, tables, FilterTables(tables, nil))
	assert.Equal(t, []Table{{Name: "a"}, {Name: "c"}}, FilterTables(tables, []string{"b", "missing"}))
	assert.Empty(t, FilterTables(tables, []string{"a", "b", "c"}))
}

func TestParseEnumValues(t *testing.T) {
	values, err := parseEnumValues("enum('draft','published','it''s')")
	require.NoError(t, err)
	assert.Equal(t, []string{"draft", "published", "it's"}, values)

	_, err = parseEnumValues("varchar(10)")
	assert.Error(t, err)
}

func TestNormalizePostgresType(t *testing.T) {
	length := 120
	assert.Equal(t, "varchar(120)", normalizePostgresType("character varying", "varchar", &length))
	assert.Equal(t, "varchar", normalizePostgresType("character varying", "varchar", nil))
	assert.Equal(t, "timestamptz", normalizePostgresType("timestamp with time zone", "timestamptz", nil))
	assert.Equal(t, "integer[]", normalizePostgresType("ARRAY", "_int4", nil))
	assert.Equal(t, "mood", normalizePostgresType("USER-DEFINED", "mood", nil))
	assert.Equal(t, "jsonb", normalizePostgresType("jsonb", "jsonb", nil))
}

func TestTableColumn(t *testing.T) {
	table := Table{Columns: []Column{{Name: "id"}, {Name: "name"}}}

	col := table.Column("name")
	require.NotNil(t, col)
	col.IsUnique = true
	assert.True(t, table.Columns[1].IsUnique)
	assert.Nil(t, table.Column("missing"))
}
