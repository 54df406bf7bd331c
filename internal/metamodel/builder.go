package metamodel

import (
	"context"
	"fmt"

	"github.com/conduit-lang/metarest/internal/schema"
)

// Build derives a catalog from the provider's type definitions. Definitions are
// expected to have passed schema validation.
func Build(ctx context.Context, provider schema.Provider) (*Catalog, error) {
	defs, err := provider.Types(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schema types: %w", err)
	}
	return buildFromDefs(defs, provider.Fingerprint())
}

type builder struct {
	defs     map[string]*schema.TypeDef
	types    map[string]*EntityType
	resolved map[string]bool
	visiting map[string]bool
}

func buildFromDefs(defs []*schema.TypeDef, fingerprint string) (*Catalog, error) {
	b := &builder{
		defs:     make(map[string]*schema.TypeDef, len(defs)),
		types:    make(map[string]*EntityType, len(defs)),
		resolved: make(map[string]bool, len(defs)),
		visiting: make(map[string]bool),
	}

	catalog := &Catalog{
		byName:      make(map[string]*EntityType, len(defs)),
		fingerprint: fingerprint,
	}

	for _, def := range defs {
		if _, exists := b.defs[def.Name]; exists {
			return nil, fmt.Errorf("type %s is declared more than once", def.Name)
		}
		t := &EntityType{
			Name:              def.Name,
			Kind:              def.Kind,
			Table:             def.TableName(),
			DeclaredSupertype: def.Extends,
			byName:            make(map[string]*Attribute),
			accessors:         make(map[string]Accessor),
		}
		b.defs[def.Name] = def
		b.types[def.Name] = t
		catalog.types = append(catalog.types, t)
		catalog.byName[def.Name] = t
	}

	for _, t := range catalog.types {
		if err := b.resolve(t); err != nil {
			return nil, err
		}
	}

	for _, t := range catalog.types {
		if t.Supertype != nil {
			t.Supertype.subtypes = append(t.Supertype.subtypes, t)
		}
	}

	return catalog, nil
}

// resolve fills in a type's supertype, attributes and accessors. Supertypes
// are resolved first so inherited attributes can be copied by reference.
func (b *builder) resolve(t *EntityType) error {
	if b.resolved[t.Name] {
		return nil
	}
	if b.visiting[t.Name] {
		return fmt.Errorf("inheritance cycle through %s", t.Name)
	}
	b.visiting[t.Name] = true
	defer delete(b.visiting, t.Name)

	if parent, ok := b.types[t.DeclaredSupertype]; ok {
		if err := b.resolve(parent); err != nil {
			return err
		}
		t.Supertype = parent
		for _, attr := range parent.attributes {
			t.addAttribute(attr)
		}
	}

	for _, def := range b.defs[t.Name].Attributes {
		attr := b.attribute(t, def)
		if _, exists := t.byName[attr.Name]; exists {
			return fmt.Errorf("%s.%s is declared more than once", t.Name, attr.Name)
		}
		t.addAttribute(attr)
	}

	for _, attr := range t.attributes {
		if attr.ID {
			t.ID = attr
			t.IDKind = idKindOf(attr.Primitive)
		}
	}
	if t.IsEntity() && t.ID == nil {
		return fmt.Errorf("entity %s has no identifier attribute", t.Name)
	}

	b.resolved[t.Name] = true
	return nil
}

func (b *builder) attribute(owner *EntityType, def *schema.AttributeDef) *Attribute {
	attr := &Attribute{
		Name:     def.Name,
		Column:   def.ColumnName(),
		Nullable: def.Nullable,
		ID:       def.ID,
		Declarer: owner,
	}

	switch {
	case def.IsScalar():
		attr.Kind = Scalar
		attr.Primitive, _ = schema.ParsePrimitiveType(def.TypeName)
	case def.Collection:
		attr.Kind = Collection
		attr.TargetName = def.TypeName
	default:
		attr.Kind = Association
		attr.TargetName = def.TypeName
	}

	if attr.IsRelation() {
		attr.Target = b.types[def.TypeName]
	}
	return attr
}

func (t *EntityType) addAttribute(attr *Attribute) {
	t.attributes = append(t.attributes, attr)
	t.byName[attr.Name] = attr
	t.accessors[attr.Name] = newAccessor(attr)
}
