package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteIntrospector reads table metadata from a SQLite database
type SQLiteIntrospector struct {
	db *sql.DB
}

// NewSQLiteIntrospector opens a SQLite database and verifies the connection
func NewSQLiteIntrospector(ctx context.Context, path string) (*SQLiteIntrospector, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping SQLite: %w", err)
	}

	return newSQLiteIntrospector(db), nil
}

func newSQLiteIntrospector(db *sql.DB) *SQLiteIntrospector {
	return &SQLiteIntrospector{db: db}
}

// Provider implements Introspector
func (e *SQLiteIntrospector) Provider() string { return ProviderSQLite }

// Close closes the database
func (e *SQLiteIntrospector) Close(context.Context) error {
	return e.db.Close()
}

// ExtractTables implements Introspector
func (e *SQLiteIntrospector) ExtractTables(ctx context.Context, tables []string) ([]Table, error) {
	tableNames, err := e.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	extracted := make([]Table, 0, len(tableNames))
	for _, name := range tableNames {
		table := Table{Name: name}
		if table.Columns, table.PrimaryKey, err = e.columns(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract columns of %s: %w", name, err)
		}
		if table.Relations, err = e.relations(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract relations of %s: %w", name, err)
		}
		if table.Indexes, err = e.indexes(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract indexes of %s: %w", name, err)
		}
		markUniqueColumns(&table)
		extracted = append(extracted, table)
	}
	return extracted, nil
}

func (e *SQLiteIntrospector) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// quoteIdent quotes a table name for use in a PRAGMA argument
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columns reads PRAGMA table_info, which also carries the primary key order
func (e *SQLiteIntrospector) columns(ctx context.Context, tableName string) ([]Column, []string, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var columns []Column
	pkOrder := map[int]string{}

	for rows.Next() {
		var cid, notNull, pk int
		var name, colType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pk); err != nil {
			return nil, nil, err
		}

		col := Column{Name: name, Type: colType, Nullable: notNull == 0 && pk == 0}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		if pk > 0 {
			pkOrder[pk] = name
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	pkColumns := make([]string, 0, len(pkOrder))
	for i := 1; i <= len(pkOrder); i++ {
		pkColumns = append(pkColumns, pkOrder[i])
	}

	// An INTEGER PRIMARY KEY aliases the rowid and is assigned automatically
	if len(pkColumns) == 1 {
		for i := range columns {
			if columns[i].Name == pkColumns[0] && strings.EqualFold(columns[i].Type, "INTEGER") {
				columns[i].AutoIncrement = true
			}
		}
	}
	return columns, pkColumns, nil
}

func (e *SQLiteIntrospector) relations(ctx context.Context, tableName string) ([]Relation, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var relations []Relation
	for rows.Next() {
		var id, seq int
		var targetTable, fromCol, onUpdate, onDelete, match string
		var toCol sql.NullString

		if err := rows.Scan(&id, &seq, &targetTable, &fromCol, &toCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		rel := Relation{SourceColumn: fromCol, TargetTable: targetTable, TargetColumn: toCol.String}
		if !toCol.Valid {
			// REFERENCES without a column list targets the primary key
			rel.TargetColumn = "id"
		}
		relations = append(relations, rel)
	}
	return relations, rows.Err()
}

func (e *SQLiteIntrospector) indexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", quoteIdent(tableName)))
	if err != nil {
		return nil, err
	}

	var indexes []Index
	var origins []string
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		// The primary key index is covered by table_info
		if origin == "pk" {
			continue
		}
		indexes = append(indexes, Index{Name: name, IsUnique: unique == 1})
		origins = append(origins, origin)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Read index columns after the list cursor is closed so a pool limited
	// to one connection does not block.
	for i := range indexes {
		columns, err := e.indexColumns(ctx, indexes[i].Name)
		if err != nil {
			return nil, err
		}
		indexes[i].Columns = columns
		// UNIQUE constraints get generated sqlite_autoindex_* names
		if origins[i] == "u" {
			indexes[i].Name = ""
		}
	}

	sort.SliceStable(indexes, func(i, j int) bool {
		return indexes[i].Name < indexes[j].Name
	})
	return indexes, nil
}

func (e *SQLiteIntrospector) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", quoteIdent(indexName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		if name.Valid {
			columns = append(columns, name.String)
		}
	}
	return columns, rows.Err()
}

// markUniqueColumns flags columns covered by a single-column unique index
func markUniqueColumns(t *Table) {
	for _, idx := range t.Indexes {
		if !idx.IsUnique || len(idx.Columns) != 1 {
			continue
		}
		if col := t.Column(idx.Columns[0]); col != nil {
			col.IsUnique = true
		}
	}
}
