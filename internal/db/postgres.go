package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

const varcharType = "varchar"

// PostgresIntrospector reads table metadata from one PostgreSQL schema
type PostgresIntrospector struct {
	conn   *pgx.Conn
	schema string
}

// NewPostgresIntrospector connects to PostgreSQL and verifies the connection
func NewPostgresIntrospector(ctx context.Context, connString, schemaName string) (*PostgresIntrospector, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgresIntrospector{conn: conn, schema: schemaName}, nil
}

// Provider implements Introspector
func (e *PostgresIntrospector) Provider() string { return ProviderPostgres }

// Close closes the connection
func (e *PostgresIntrospector) Close(ctx context.Context) error {
	return e.conn.Close(ctx)
}

// ExtractTables implements Introspector
func (e *PostgresIntrospector) ExtractTables(ctx context.Context, tables []string) ([]Table, error) {
	tableNames, err := e.tableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	extracted := make([]Table, 0, len(tableNames))
	for _, name := range tableNames {
		table := Table{Name: name}
		if table.Columns, err = e.columns(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract columns of %s: %w", name, err)
		}
		if table.PrimaryKey, err = e.primaryKey(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract primary key of %s: %w", name, err)
		}
		if table.Relations, err = e.relations(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract relations of %s: %w", name, err)
		}
		if table.Indexes, err = e.indexes(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to extract indexes of %s: %w", name, err)
		}
		extracted = append(extracted, table)
	}
	return extracted, nil
}

func (e *PostgresIntrospector) tableNames(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	rows, err := e.conn.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, e.schema)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// normalizePostgresType maps information_schema type names to their short PostgreSQL spelling
func normalizePostgresType(dataType, udtName string, charMaxLength *int) string {
	switch dataType {
	case "timestamp with time zone":
		return "timestamptz"
	case "timestamp without time zone":
		return "timestamp"
	case "time with time zone":
		return "timetz"
	case "time without time zone":
		return "time"
	case "character varying":
		if charMaxLength != nil {
			return fmt.Sprintf("varchar(%d)", *charMaxLength)
		}
		return varcharType
	case "character":
		if charMaxLength != nil {
			return fmt.Sprintf("char(%d)", *charMaxLength)
		}
		return "char"
	case "ARRAY":
		// udt_name of an array is the element type with an underscore prefix, e.g. _int4
		if strings.HasPrefix(udtName, "_") {
			return normalizeUdtName(udtName[1:]) + "[]"
		}
		return "array"
	case "USER-DEFINED":
		return udtName
	default:
		return dataType
	}
}

func normalizeUdtName(udtName string) string {
	switch udtName {
	case "int4":
		return "integer"
	case "int8":
		return "bigint"
	case "int2":
		return "smallint"
	case "float4":
		return "real"
	case "float8":
		return "double precision"
	case "bool":
		return "boolean"
	default:
		return udtName
	}
}

func (e *PostgresIntrospector) columns(ctx context.Context, tableName string) ([]Column, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default,
			CASE WHEN EXISTS (
				SELECT 1 FROM information_schema.table_constraints tc
				JOIN information_schema.constraint_column_usage ccu
					ON tc.constraint_name = ccu.constraint_name
					AND tc.table_schema = ccu.table_schema
				WHERE tc.table_schema = $1
					AND tc.table_name = $2
					AND tc.constraint_type = 'UNIQUE'
					AND ccu.column_name = c.column_name
			) THEN true ELSE false END AS is_unique,
			c.udt_name,
			c.character_maximum_length,
			c.is_identity
		FROM information_schema.columns c
		WHERE c.table_schema = $1 AND c.table_name = $2
		ORDER BY c.ordinal_position
	`, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []Column
	var enumTypes []string

	for rows.Next() {
		var col Column
		var nullable, dataType, udtName, isIdentity string
		var charMaxLength *int

		if err := rows.Scan(&col.Name, &dataType, &nullable, &col.DefaultValue, &col.IsUnique, &udtName, &charMaxLength, &isIdentity); err != nil {
			return nil, err
		}

		col.Nullable = nullable == "YES"
		col.Type = normalizePostgresType(dataType, udtName, charMaxLength)
		col.AutoIncrement = isIdentity == "YES" ||
			(col.DefaultValue != nil && strings.HasPrefix(*col.DefaultValue, "nextval("))

		if dataType == "USER-DEFINED" {
			col.EnumType = udtName
			enumTypes = append(enumTypes, udtName)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(enumTypes) == 0 {
		return columns, nil
	}

	enumValues, err := e.enumValues(ctx, enumTypes)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		if values, ok := enumValues[columns[i].EnumType]; ok {
			columns[i].EnumValues = values
		} else {
			// USER-DEFINED but not an enum, e.g. a domain or extension type
			columns[i].EnumType = ""
		}
	}
	return columns, nil
}

// enumValues fetches the labels of several enum types in one query
func (e *PostgresIntrospector) enumValues(ctx context.Context, typeNames []string) (map[string][]string, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1 AND t.typname = ANY($2)
		ORDER BY t.typname, e.enumsortorder
	`, e.schema, typeNames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var typName, label string
		if err := rows.Scan(&typName, &label); err != nil {
			return nil, err
		}
		result[typName] = append(result[typName], label)
	}
	return result, rows.Err()
}

func (e *PostgresIntrospector) primaryKey(ctx context.Context, tableName string) ([]string, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT kcu.column_name
		FROM information_schema.key_column_usage kcu
		JOIN information_schema.table_constraints tc
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE kcu.table_schema = $1
			AND kcu.table_name = $2
			AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kcu.ordinal_position
	`, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (e *PostgresIntrospector) relations(ctx context.Context, tableName string) ([]Relation, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT
			kcu.column_name,
			ccu.table_name AS foreign_table_name,
			ccu.column_name AS foreign_column_name
		FROM information_schema.table_constraints AS tc
		JOIN information_schema.key_column_usage AS kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage AS ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = $1
			AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Relation, error) {
		var rel Relation
		err := row.Scan(&rel.SourceColumn, &rel.TargetTable, &rel.TargetColumn)
		return rel, err
	})
}

func (e *PostgresIntrospector) indexes(ctx context.Context, tableName string) ([]Index, error) {
	rows, err := e.conn.Query(ctx, `
		SELECT
			i.relname AS index_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname::text ORDER BY array_position(ix.indkey, a.attnum)) AS column_names
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND t.relname = $2
			AND NOT ix.indisprimary
		GROUP BY i.relname, ix.indisunique
		ORDER BY i.relname
	`, e.schema, tableName)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Index, error) {
		var idx Index
		err := row.Scan(&idx.Name, &idx.IsUnique, &idx.Columns)
		return idx, err
	})
}
