// Package metamodel derives an immutable catalog of entity type descriptors from a
// schema provider. The catalog describes every managed type, its attributes, the
// resolved targets of associations and collections, and inheritance between types.
// It also carries the per-type property accessor table used to navigate live data.
package metamodel

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/conduit-lang/metarest/internal/schema"
)

// ValueKind classifies what an attribute holds
type ValueKind int

const (
	// Scalar is a primitive value stored on the owner
	Scalar ValueKind = iota
	// Association is a single reference to another type
	Association
	// Collection is an ordered set of references to another type
	Collection
)

// String returns the string representation of the value kind
func (k ValueKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Association:
		return "association"
	case Collection:
		return "collection"
	default:
		return "unknown"
	}
}

// IDKind is the declared kind of an entity identifier
type IDKind int

const (
	// IDString identifiers are used verbatim
	IDString IDKind = iota
	// IDInteger identifiers are parsed as base-10 integers
	IDInteger
	// IDDecimal identifiers are parsed as floating point numbers
	IDDecimal
)

// String returns the string representation of the identifier kind
func (k IDKind) String() string {
	switch k {
	case IDString:
		return "string"
	case IDInteger:
		return "integer"
	case IDDecimal:
		return "decimal"
	default:
		return "unknown"
	}
}

// decimalLiteral is plain base-10 text: no exponent, hex, NaN or Inf
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// Parse coerces an identifier literal to the kind's Go representation
func (k IDKind) Parse(literal string) (any, error) {
	switch k {
	case IDInteger:
		v, err := strconv.ParseInt(literal, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", literal)
		}
		return v, nil
	case IDDecimal:
		if !decimalLiteral.MatchString(literal) {
			return nil, fmt.Errorf("%q is not a decimal", literal)
		}
		v, err := strconv.ParseFloat(literal, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("%q is not a finite decimal", literal)
		}
		return v, nil
	default:
		return literal, nil
	}
}

// idKindOf maps an identifier's primitive type to its kind; unrecognized kinds are strings
func idKindOf(p schema.PrimitiveType) IDKind {
	switch p {
	case schema.TypeInt, schema.TypeBigInt:
		return IDInteger
	case schema.TypeFloat, schema.TypeDecimal:
		return IDDecimal
	default:
		return IDString
	}
}

// Attribute describes one attribute of a managed type
type Attribute struct {
	Name      string
	Column    string
	Kind      ValueKind
	Primitive schema.PrimitiveType // scalars only
	Nullable  bool
	ID        bool

	// TargetName is the declared element type of an association or collection.
	TargetName string
	// Target is the resolved catalog type, nil when the target is not a catalog type.
	Target *EntityType
	// Declarer is the type that declares the attribute; inherited attributes keep
	// their original declarer.
	Declarer *EntityType
}

// IsRelation reports whether the attribute references another type
func (a *Attribute) IsRelation() bool {
	return a.Kind == Association || a.Kind == Collection
}

// TypeLabel returns the attribute type as shown in the catalog document
func (a *Attribute) TypeLabel() string {
	switch a.Kind {
	case Association:
		return a.TargetName
	case Collection:
		return fmt.Sprintf("array<%s>", a.TargetName)
	default:
		return a.Primitive.String()
	}
}

// Temporal layouts for values that drivers return as time.Time
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05.999999999"
)

// FormatValue renders a stored scalar in the attribute's declared form. Drivers
// that return time.Time for date and time columns are cut back to the declared
// precision; other values are returned unchanged.
func (a *Attribute) FormatValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		switch a.Primitive {
		case schema.TypeDate:
			return x.Format(DateLayout)
		case schema.TypeTime:
			return x.Format(TimeLayout)
		default:
			return x.Format(time.RFC3339Nano)
		}
	default:
		return v
	}
}

// EntityType describes a managed type in the catalog.
// Descriptors are immutable once the catalog is built.
type EntityType struct {
	Name  string
	Kind  schema.TypeKind
	Table string

	// Supertype is set only when the declared supertype is itself a catalog type.
	Supertype *EntityType
	// DeclaredSupertype is the supertype name as written in the schema.
	DeclaredSupertype string

	// ID is the identifier attribute; nil for embeddable and abstract types without one.
	ID     *Attribute
	IDKind IDKind

	attributes []*Attribute
	byName     map[string]*Attribute
	accessors  map[string]Accessor
	subtypes   []*EntityType
}

// IsEntity reports whether the type is navigable by identifier
func (t *EntityType) IsEntity() bool {
	return t.Kind == schema.KindEntity
}

// Attributes returns all attributes, inherited first, in declaration order
func (t *EntityType) Attributes() []*Attribute {
	out := make([]*Attribute, len(t.attributes))
	copy(out, t.attributes)
	return out
}

// OwnAttributes returns only the attributes declared by this type
func (t *EntityType) OwnAttributes() []*Attribute {
	var out []*Attribute
	for _, attr := range t.attributes {
		if attr.Declarer == t {
			out = append(out, attr)
		}
	}
	return out
}

// ScalarAttributes returns the scalar attributes in order
func (t *EntityType) ScalarAttributes() []*Attribute {
	var out []*Attribute
	for _, attr := range t.attributes {
		if attr.Kind == Scalar {
			out = append(out, attr)
		}
	}
	return out
}

// Subtypes returns the catalog types that directly extend t, in catalog order
func (t *EntityType) Subtypes() []*EntityType {
	out := make([]*EntityType, len(t.subtypes))
	copy(out, t.subtypes)
	return out
}

// EntitySubtypes returns every entity below t in the inheritance tree,
// depth first in catalog order. Abstract types in between are walked through.
func (t *EntityType) EntitySubtypes() []*EntityType {
	var out []*EntityType
	for _, sub := range t.subtypes {
		if sub.IsEntity() {
			out = append(out, sub)
		}
		out = append(out, sub.EntitySubtypes()...)
	}
	return out
}

// Attribute returns the attribute with the given name
func (t *EntityType) Attribute(name string) (*Attribute, bool) {
	attr, ok := t.byName[name]
	return attr, ok
}

// Accessor returns the registered property accessor for the named attribute
func (t *EntityType) Accessor(name string) (Accessor, bool) {
	fn, ok := t.accessors[name]
	return fn, ok
}

// String returns the type name with its kind
func (t *EntityType) String() string {
	return fmt.Sprintf("%s %s", t.Kind, t.Name)
}

// Instance is a live data object of a catalog type.
// Values are keyed by attribute name.
type Instance struct {
	Type   *EntityType
	ID     any
	Values map[string]any
}

// Value returns the raw stored value of the named attribute
func (i *Instance) Value(name string) (any, bool) {
	v, ok := i.Values[name]
	return v, ok
}

// String identifies the instance for logs and errors
func (i *Instance) String() string {
	if i.ID == nil {
		return i.Type.Name
	}
	return fmt.Sprintf("%s/%v", i.Type.Name, i.ID)
}
