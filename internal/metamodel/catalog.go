package metamodel

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a name does not denote a catalog type
var ErrUnknownType = errors.New("unknown type")

// LinkKind distinguishes the two kinds of edge between types
type LinkKind string

const (
	// LinkRelation connects a type to the target of one of its own attributes
	LinkRelation LinkKind = "relation"
	// LinkInheritance connects a subtype to its supertype
	LinkInheritance LinkKind = "inheritance"
)

// LinkEdge is a directed relationship between two catalog types
type LinkEdge struct {
	Kind   LinkKind
	Source string
	Target string
}

// String returns a readable form of the edge
func (e LinkEdge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.Source, e.Kind, e.Target)
}

// Catalog is the immutable set of managed types
type Catalog struct {
	types       []*EntityType
	byName      map[string]*EntityType
	fingerprint string
}

// Lookup returns the descriptor for name. The same pointer is returned for
// every call.
func (c *Catalog) Lookup(name string) (*EntityType, error) {
	t, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// LookupEntity returns the descriptor for name only when it is an entity.
// Embeddable and abstract types are not addressable and report ErrUnknownType.
func (c *Catalog) LookupEntity(name string) (*EntityType, error) {
	t, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}
	if !t.IsEntity() {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnknownType, name, t.Kind)
	}
	return t, nil
}

// Types returns all managed types in declaration order
func (c *Catalog) Types() []*EntityType {
	out := make([]*EntityType, len(c.types))
	copy(out, c.types)
	return out
}

// Entities returns the addressable entity types in declaration order
func (c *Catalog) Entities() []*EntityType {
	var out []*EntityType
	for _, t := range c.types {
		if t.IsEntity() {
			out = append(out, t)
		}
	}
	return out
}

// Names returns the type names in declaration order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.types))
	for i, t := range c.types {
		names[i] = t.Name
	}
	return names
}

// Fingerprint identifies the schema the catalog was built from
func (c *Catalog) Fingerprint() string {
	return c.fingerprint
}

// Edges derives the relationship graph. For every type, in declaration order,
// its own relation attributes with a catalog target are emitted first, followed
// by its inheritance edge when the supertype is a catalog type. Inherited
// attributes never produce edges on the subtype.
func (c *Catalog) Edges() []LinkEdge {
	var edges []LinkEdge
	for _, t := range c.types {
		for _, attr := range t.OwnAttributes() {
			if !attr.IsRelation() || attr.Target == nil {
				continue
			}
			edges = append(edges, LinkEdge{Kind: LinkRelation, Source: t.Name, Target: attr.Target.Name})
		}
		if t.Supertype != nil {
			edges = append(edges, LinkEdge{Kind: LinkInheritance, Source: t.Name, Target: t.Supertype.Name})
		}
	}
	return edges
}
