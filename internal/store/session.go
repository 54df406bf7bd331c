package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/conduit-lang/metarest/internal/metamodel"
)

// Session is a request-scoped view of the database bound to one connection.
// It is not safe for concurrent use.
type Session struct {
	conn    *sql.Conn
	dialect Dialect
	logger  *zap.Logger

	closeOnce sync.Once
	closed    bool
	queries   int
}

// Close releases the connection back to the pool. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed = true
		err = s.conn.Close()
	})
	return err
}

// Queries returns the number of statements run by the session
func (s *Session) Queries() int {
	return s.queries
}

// Find loads the entity of type t with the given identifier. Each type keeps
// its own table, so a miss on t falls through to its entity subtypes and the
// instance is returned under the type whose table holds it. It returns nil
// without error when no such row exists.
func (s *Session) Find(ctx context.Context, t *metamodel.EntityType, id any) (*metamodel.Instance, error) {
	if err := s.usable(t); err != nil {
		return nil, err
	}
	id = coerceID(t, id)

	for _, candidate := range concreteTypes(t) {
		inst, err := s.findIn(ctx, candidate, id)
		if err != nil || inst != nil {
			return inst, err
		}
	}
	return nil, nil
}

func (s *Session) findIn(ctx context.Context, t *metamodel.EntityType, id any) (*metamodel.Instance, error) {
	cols := rowColumns(t)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s",
		s.selectList("", cols), QuoteIdentifier(t.Table), QuoteIdentifier(t.ID.Column), s.dialect.Placeholder(1))

	s.trace(query, id)
	row := s.conn.QueryRowContext(ctx, query, id)
	record, err := scanRecord(row, columnNames(cols))
	if err != nil {
		err = ConvertDBError(err)
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", t.Name, err)
	}
	return toInstance(t, cols, record), nil
}

// FindAll loads every entity of type t and of its entity subtypes, ordered by identifier
func (s *Session) FindAll(ctx context.Context, t *metamodel.EntityType) ([]*metamodel.Instance, error) {
	if err := s.usable(t); err != nil {
		return nil, err
	}

	types := concreteTypes(t)
	var items []*metamodel.Instance
	for _, candidate := range types {
		found, err := s.findAllIn(ctx, candidate)
		if err != nil {
			return nil, err
		}
		items = append(items, found...)
	}
	if items == nil {
		items = []*metamodel.Instance{}
	}
	if len(types) > 1 {
		sort.SliceStable(items, func(i, j int) bool {
			return lessID(items[i].ID, items[j].ID)
		})
	}
	return items, nil
}

func (s *Session) findAllIn(ctx context.Context, t *metamodel.EntityType) ([]*metamodel.Instance, error) {
	cols := rowColumns(t)
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		s.selectList("", cols), QuoteIdentifier(t.Table), QuoteIdentifier(t.ID.Column))

	s.trace(query)
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Name, ConvertDBError(err))
	}
	defer rows.Close()

	items, err := scanInstances(rows, t, cols)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.Name, ConvertDBError(err))
	}
	return items, nil
}

// LoadReference follows a single-valued association to an entity. A missing
// foreign key, or a key with no matching row, is reported as absent.
func (s *Session) LoadReference(ctx context.Context, owner *metamodel.Instance, attr *metamodel.Attribute) (*metamodel.Instance, error) {
	if !isEntityTarget(attr) {
		return nil, fmt.Errorf("%s.%s does not reference an entity", owner.Type.Name, attr.Name)
	}
	fk, ok := owner.Values[attr.Name]
	if !ok || fk == nil {
		return nil, nil
	}
	return s.Find(ctx, attr.Target, fk)
}

// LoadCollection follows a collection of entities. Entity owners read the
// join table in position order; embedded owners hold the identifiers inline.
func (s *Session) LoadCollection(ctx context.Context, owner *metamodel.Instance, attr *metamodel.Attribute) ([]*metamodel.Instance, error) {
	if !isEntityTarget(attr) {
		return nil, fmt.Errorf("%s.%s is not a collection of entities", owner.Type.Name, attr.Name)
	}
	if !owner.Type.IsEntity() {
		return s.loadInline(ctx, owner, attr)
	}

	target := attr.Target
	if err := s.usable(target); err != nil {
		return nil, err
	}
	if len(target.EntitySubtypes()) > 0 {
		return s.loadPolymorphic(ctx, owner, attr)
	}

	cols := rowColumns(target)
	query := fmt.Sprintf("SELECT %s FROM %s t JOIN %s j ON j.%s = t.%s WHERE j.%s = %s ORDER BY j.%s, t.%s",
		s.selectList("t", cols),
		QuoteIdentifier(target.Table),
		QuoteIdentifier(joinTable(owner.Type, attr)),
		QuoteIdentifier("target_id"), QuoteIdentifier(target.ID.Column),
		QuoteIdentifier("owner_id"), s.dialect.Placeholder(1),
		QuoteIdentifier("position"), QuoteIdentifier(target.ID.Column))

	s.trace(query, owner.ID)
	rows, err := s.conn.QueryContext(ctx, query, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", owner.Type.Name, attr.Name, ConvertDBError(err))
	}
	defer rows.Close()

	items, err := scanInstances(rows, target, cols)
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", owner.Type.Name, attr.Name, ConvertDBError(err))
	}
	return items, nil
}

// loadPolymorphic reads the join table in position order and finds each member
// across the target's type tree, so members stored as subtypes are included
func (s *Session) loadPolymorphic(ctx context.Context, owner *metamodel.Instance, attr *metamodel.Attribute) ([]*metamodel.Instance, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %s",
		QuoteIdentifier("target_id"),
		QuoteIdentifier(joinTable(owner.Type, attr)),
		QuoteIdentifier("owner_id"), s.dialect.Placeholder(1),
		QuoteIdentifier("position"))

	s.trace(query, owner.ID)
	rows, err := s.conn.QueryContext(ctx, query, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", owner.Type.Name, attr.Name, ConvertDBError(err))
	}
	var ids []any
	for rows.Next() {
		var id any
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("load %s.%s: %w", owner.Type.Name, attr.Name, ConvertDBError(err))
		}
		ids = append(ids, normalize(id))
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", owner.Type.Name, attr.Name, ConvertDBError(err))
	}

	items := make([]*metamodel.Instance, 0, len(ids))
	for _, id := range ids {
		item, err := s.Find(ctx, attr.Target, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Session) loadInline(ctx context.Context, owner *metamodel.Instance, attr *metamodel.Attribute) ([]*metamodel.Instance, error) {
	ids, err := inlineIDs(owner.Values[attr.Name])
	if err != nil {
		return nil, fmt.Errorf("load %s.%s: %w", owner.Type.Name, attr.Name, err)
	}
	items := make([]*metamodel.Instance, 0, len(ids))
	for _, id := range ids {
		item, err := s.Find(ctx, attr.Target, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Session) usable(t *metamodel.EntityType) error {
	if s.closed {
		return ErrSessionClosed
	}
	if !t.IsEntity() || t.ID == nil {
		return fmt.Errorf("%s is not a stored entity", t.Name)
	}
	return nil
}

func (s *Session) selectList(alias string, cols []column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if alias != "" {
			parts[i] = alias + "." + QuoteIdentifier(c.name)
		} else {
			parts[i] = QuoteIdentifier(c.name)
		}
	}
	return strings.Join(parts, ", ")
}

func (s *Session) trace(query string, args ...any) {
	s.queries++
	s.logger.Debug("query",
		zap.String("sql", query),
		zap.Any("args", args))
}

// concreteTypes lists t followed by its entity subtypes
func concreteTypes(t *metamodel.EntityType) []*metamodel.EntityType {
	return append([]*metamodel.EntityType{t}, t.EntitySubtypes()...)
}

// lessID orders identifiers of one kind; mixed kinds fall back to their text
func lessID(a, b any) bool {
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			return x < y
		}
	case float64:
		if y, ok := b.(float64); ok {
			return x < y
		}
	case string:
		if y, ok := b.(string); ok {
			return x < y
		}
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

// coerceID converts identifiers decoded from JSON or text to the entity's id kind
func coerceID(t *metamodel.EntityType, id any) any {
	switch t.IDKind {
	case metamodel.IDInteger:
		switch v := id.(type) {
		case float64:
			return int64(v)
		case int:
			return int64(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n
			}
		}
	case metamodel.IDString:
		switch v := id.(type) {
		case int64:
			return strconv.FormatInt(v, 10)
		case int:
			return strconv.Itoa(v)
		}
	}
	return id
}

// inlineIDs reads an identifier list stored as JSON text or already decoded
func inlineIDs(raw any) ([]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		var ids []any
		if err := json.Unmarshal([]byte(v), &ids); err != nil {
			return nil, fmt.Errorf("decode identifier list: %w", err)
		}
		return ids, nil
	default:
		return nil, fmt.Errorf("unexpected identifier list %T", raw)
	}
}
