package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/conduit-lang/metarest/internal/metamodel"
)

// DDL generates CREATE TABLE statements for every entity of the catalog,
// followed by the join tables of entity collections.
func DDL(catalog *metamodel.Catalog, dialect Dialect) []string {
	var tables, joins []string
	for _, t := range catalog.Entities() {
		tables = append(tables, createTable(t, dialect))
		for _, attr := range joinCollections(t) {
			joins = append(joins, createJoinTable(t, attr, dialect))
		}
	}
	return append(tables, joins...)
}

// Migrate runs the catalog's DDL against the store
func (s *Store) Migrate(ctx context.Context, catalog *metamodel.Catalog) error {
	for _, stmt := range DDL(catalog, s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", ConvertDBError(err))
		}
	}
	return nil
}

func createTable(t *metamodel.EntityType, dialect Dialect) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n", QuoteIdentifier(t.Table)))

	cols := rowColumns(t)
	for i, c := range cols {
		b.WriteString("  ")
		b.WriteString(columnDefinition(c, dialect))
		if i < len(cols)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	b.WriteString(");")
	return b.String()
}

func columnDefinition(c column, dialect Dialect) string {
	parts := []string{QuoteIdentifier(c.name)}

	switch {
	case c.json:
		parts = append(parts, dialect.JSONType(), "NULL")
	case c.attr.Kind == metamodel.Association:
		parts = append(parts, dialect.ColumnType(c.attr.Target.ID.Primitive), "NULL")
	case c.attr.ID:
		parts = append(parts, dialect.ColumnType(c.attr.Primitive), "PRIMARY KEY")
	case c.attr.Nullable:
		parts = append(parts, dialect.ColumnType(c.attr.Primitive), "NULL")
	default:
		parts = append(parts, dialect.ColumnType(c.attr.Primitive), "NOT NULL")
	}

	return strings.Join(parts, " ")
}

func createJoinTable(owner *metamodel.EntityType, attr *metamodel.Attribute, dialect Dialect) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s %s NOT NULL,\n  %s %s NOT NULL,\n  %s INTEGER NOT NULL,\n  PRIMARY KEY (%s, %s)\n);",
		QuoteIdentifier(joinTable(owner, attr)),
		QuoteIdentifier("owner_id"), dialect.ColumnType(owner.ID.Primitive),
		QuoteIdentifier("target_id"), dialect.ColumnType(attr.Target.ID.Primitive),
		QuoteIdentifier("position"),
		QuoteIdentifier("owner_id"), QuoteIdentifier("position"))
}
