package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/metarest/internal/metamodel"
)

// Fixtures are seed rows keyed by entity type name. Each row maps attribute
// names to values: associations hold the target identifier, collections of
// entities a list of identifiers and embedded values a nested mapping.
type Fixtures map[string][]map[string]interface{}

// LoadFixtures decodes YAML fixtures
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var fixtures Fixtures
	if err := yaml.NewDecoder(r).Decode(&fixtures); err != nil {
		if err == io.EOF {
			return Fixtures{}, nil
		}
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return fixtures, nil
}

// Seed inserts fixtures in one transaction, in catalog order. It returns the
// number of rows inserted per type.
func (s *Store) Seed(ctx context.Context, catalog *metamodel.Catalog, fixtures Fixtures) (map[string]int, error) {
	for name := range fixtures {
		if _, err := catalog.LookupEntity(name); err != nil {
			return nil, fmt.Errorf("fixtures: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	counts := make(map[string]int)
	for _, t := range catalog.Entities() {
		for i, row := range fixtures[t.Name] {
			if err := s.insertRow(ctx, tx, t, row); err != nil {
				return nil, fmt.Errorf("seed %s[%d]: %w", t.Name, i, err)
			}
			counts[t.Name]++
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit seed: %w", err)
	}
	s.logger.Info("seeded fixtures", zap.Any("rows", counts))
	return counts, nil
}

func (s *Store) insertRow(ctx context.Context, tx *sql.Tx, t *metamodel.EntityType, row map[string]interface{}) error {
	for key := range row {
		if _, ok := t.Attribute(key); !ok {
			return fmt.Errorf("%s has no attribute %s", t.Name, key)
		}
	}
	id, ok := row[t.ID.Name]
	if !ok || id == nil {
		return fmt.Errorf("missing identifier %s", t.ID.Name)
	}

	cols := rowColumns(t)
	names := make([]string, 0, len(cols))
	marks := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols))
	for _, c := range cols {
		v, ok := row[c.attr.Name]
		if !ok {
			continue
		}
		if c.json && v != nil {
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode %s: %w", c.attr.Name, err)
			}
			v = string(data)
		}
		names = append(names, QuoteIdentifier(c.name))
		args = append(args, v)
		marks = append(marks, s.dialect.Placeholder(len(args)))
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdentifier(t.Table), strings.Join(names, ", "), strings.Join(marks, ", "))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return ConvertDBError(err)
	}

	for _, attr := range joinCollections(t) {
		ids, err := inlineIDs(row[attr.Name])
		if err != nil {
			return fmt.Errorf("%s: %w", attr.Name, err)
		}
		query := fmt.Sprintf("INSERT INTO %s (%s, %s, %s) VALUES (%s, %s, %s)",
			QuoteIdentifier(joinTable(t, attr)),
			QuoteIdentifier("owner_id"), QuoteIdentifier("target_id"), QuoteIdentifier("position"),
			s.dialect.Placeholder(1), s.dialect.Placeholder(2), s.dialect.Placeholder(3))
		for pos, target := range ids {
			if _, err := tx.ExecContext(ctx, query, id, coerceID(attr.Target, target), pos); err != nil {
				return fmt.Errorf("%s: %w", attr.Name, ConvertDBError(err))
			}
		}
	}
	return nil
}
