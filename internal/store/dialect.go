package store

import (
	"fmt"
	"strings"

	"github.com/conduit-lang/metarest/internal/schema"
)

// Dialect captures the SQL differences between supported databases
type Dialect struct {
	Name        string
	placeholder func(n int) string
	types       map[schema.PrimitiveType]string
	jsonType    string
}

var postgresDialect = Dialect{
	Name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	types: map[schema.PrimitiveType]string{
		schema.TypeString:    "VARCHAR(255)",
		schema.TypeText:      "TEXT",
		schema.TypeInt:       "INTEGER",
		schema.TypeBigInt:    "BIGINT",
		schema.TypeFloat:     "DOUBLE PRECISION",
		schema.TypeDecimal:   "NUMERIC",
		schema.TypeBool:      "BOOLEAN",
		schema.TypeTimestamp: "TIMESTAMP WITH TIME ZONE",
		schema.TypeDate:      "DATE",
		schema.TypeTime:      "TIME",
		schema.TypeUUID:      "UUID",
		schema.TypeJSON:      "JSONB",
	},
	jsonType: "JSONB",
}

var sqliteDialect = Dialect{
	Name:        "sqlite",
	placeholder: func(int) string { return "?" },
	types: map[schema.PrimitiveType]string{
		schema.TypeString:    "TEXT",
		schema.TypeText:      "TEXT",
		schema.TypeInt:       "INTEGER",
		schema.TypeBigInt:    "INTEGER",
		schema.TypeFloat:     "REAL",
		schema.TypeDecimal:   "NUMERIC",
		schema.TypeBool:      "BOOLEAN",
		schema.TypeTimestamp: "TIMESTAMP",
		schema.TypeDate:      "DATE",
		schema.TypeTime:      "TEXT",
		schema.TypeUUID:      "TEXT",
		schema.TypeJSON:      "TEXT",
	},
	jsonType: "TEXT",
}

// Postgres returns the PostgreSQL dialect
func Postgres() Dialect { return postgresDialect }

// SQLite returns the SQLite dialect
func SQLite() Dialect { return sqliteDialect }

// DialectFor returns the dialect used with a registered driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return postgresDialect, nil
	case "sqlite", "sqlite3":
		return sqliteDialect, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported driver %q (expected pgx, postgres, sqlite or sqlite3)", driver)
	}
}

// Placeholder returns the bind parameter marker for the nth (1-based) argument
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// ColumnType returns the column type for a primitive
func (d Dialect) ColumnType(p schema.PrimitiveType) string {
	if t, ok := d.types[p]; ok {
		return t
	}
	return "TEXT"
}

// JSONType returns the column type used for inline values
func (d Dialect) JSONType() string {
	return d.jsonType
}

// QuoteIdentifier quotes a table or column name
func QuoteIdentifier(identifier string) string {
	escaped := strings.ReplaceAll(identifier, `"`, `""`)
	return fmt.Sprintf(`"%s"`, escaped)
}
