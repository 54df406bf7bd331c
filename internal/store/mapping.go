package store

import (
	"github.com/conduit-lang/metarest/internal/metamodel"
	"github.com/conduit-lang/metarest/internal/schema"
)

// column binds an attribute to the column that stores it on the owner's row
type column struct {
	attr *metamodel.Attribute
	name string
	json bool // value is stored as JSON text
}

// rowColumns returns the columns stored on an entity's own table, in attribute
// order. Collections of entities live in join tables and are not included.
func rowColumns(t *metamodel.EntityType) []column {
	var cols []column
	for _, attr := range t.Attributes() {
		switch {
		case attr.Kind == metamodel.Scalar:
			cols = append(cols, column{attr: attr, name: attr.Column})
		case isEntityTarget(attr) && attr.Kind == metamodel.Association:
			cols = append(cols, column{attr: attr, name: foreignKey(attr)})
		case isEntityTarget(attr):
			// join table
		default:
			cols = append(cols, column{attr: attr, name: attr.Column, json: true})
		}
	}
	return cols
}

// joinCollections returns the attributes of t stored in join tables
func joinCollections(t *metamodel.EntityType) []*metamodel.Attribute {
	var out []*metamodel.Attribute
	for _, attr := range t.Attributes() {
		if attr.Kind == metamodel.Collection && isEntityTarget(attr) {
			out = append(out, attr)
		}
	}
	return out
}

func isEntityTarget(attr *metamodel.Attribute) bool {
	return attr.Target != nil && attr.Target.Kind == schema.KindEntity
}

func foreignKey(attr *metamodel.Attribute) string {
	return attr.Column + "_id"
}

// joinTable names the table holding a collection of entities for an owner type
func joinTable(owner *metamodel.EntityType, attr *metamodel.Attribute) string {
	return owner.Table + "_" + attr.Column
}

func columnNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}
