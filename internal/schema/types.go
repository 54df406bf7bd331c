// Package schema provides the type definitions and parser for metarest schema files.
// A schema file declares the managed types (entities, embeddable value types and
// abstract base types) whose persisted instances are exposed as HTTP resources.
package schema

import (
	"fmt"
	"strings"
)

// PrimitiveType represents the built-in scalar types an attribute may have
type PrimitiveType int

const (
	// Text types
	TypeString PrimitiveType = iota
	TypeText

	// Numeric types
	TypeInt
	TypeBigInt
	TypeFloat
	TypeDecimal

	// Boolean
	TypeBool

	// Time types
	TypeTimestamp
	TypeDate
	TypeTime

	// Unique identifiers
	TypeUUID

	// JSON
	TypeJSON
)

// String returns the string representation of the primitive type
func (p PrimitiveType) String() string {
	switch p {
	case TypeString:
		return "string"
	case TypeText:
		return "text"
	case TypeInt:
		return "int"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeDecimal:
		return "decimal"
	case TypeBool:
		return "bool"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeTime:
		return "time"
	case TypeUUID:
		return "uuid"
	case TypeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParsePrimitiveType converts a string to a PrimitiveType
func ParsePrimitiveType(s string) (PrimitiveType, error) {
	switch s {
	case "string":
		return TypeString, nil
	case "text":
		return TypeText, nil
	case "int", "integer":
		return TypeInt, nil
	case "bigint":
		return TypeBigInt, nil
	case "float", "double":
		return TypeFloat, nil
	case "decimal":
		return TypeDecimal, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "timestamp":
		return TypeTimestamp, nil
	case "date":
		return TypeDate, nil
	case "time":
		return TypeTime, nil
	case "uuid":
		return TypeUUID, nil
	case "json":
		return TypeJSON, nil
	default:
		return 0, fmt.Errorf("unknown primitive type: %s", s)
	}
}

// IsPrimitive reports whether name denotes a built-in scalar type
func IsPrimitive(name string) bool {
	_, err := ParsePrimitiveType(name)
	return err == nil
}

// TypeKind is the persistence kind of a managed type
type TypeKind int

const (
	// KindEntity is a navigable type with identity and its own table
	KindEntity TypeKind = iota
	// KindEmbeddable is a value type stored inline with its owner
	KindEmbeddable
	// KindAbstract is a base type that only contributes inherited attributes
	KindAbstract
)

// String returns the schema keyword for the kind
func (k TypeKind) String() string {
	switch k {
	case KindEntity:
		return "entity"
	case KindEmbeddable:
		return "embeddable"
	case KindAbstract:
		return "abstract"
	default:
		return "unknown"
	}
}

// ParseTypeKind converts a schema keyword to a TypeKind
func ParseTypeKind(s string) (TypeKind, error) {
	switch s {
	case "entity":
		return KindEntity, nil
	case "embeddable":
		return KindEmbeddable, nil
	case "abstract":
		return KindAbstract, nil
	default:
		return 0, fmt.Errorf("unknown type kind: %s", s)
	}
}

// Location is a position in a schema source
type Location struct {
	File   string
	Line   int
	Column int
}

// String formats the location as file:line:column
func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// AttributeDef is a single attribute as declared in a schema file
type AttributeDef struct {
	Name       string
	TypeName   string // primitive name or referenced type name
	Collection bool   // declared as [TypeName]
	Nullable   bool   // declared with a trailing ?
	ID         bool   // @id
	Column     string // @column("...") override, empty for the default
	Location   Location
}

// IsScalar reports whether the attribute holds a primitive value
func (a *AttributeDef) IsScalar() bool {
	return !a.Collection && IsPrimitive(a.TypeName)
}

// TypeDef is a managed type as declared in a schema file
type TypeDef struct {
	Name       string
	Kind       TypeKind
	Extends    string // declared supertype name, empty when none
	Table      string // @table("...") override, empty for the default
	Attributes []*AttributeDef
	Location   Location
}

// Attribute returns the attribute declared directly on this type with the given name
func (t *TypeDef) Attribute(name string) (*AttributeDef, bool) {
	for _, attr := range t.Attributes {
		if attr.Name == name {
			return attr, true
		}
	}
	return nil, false
}

// TableName returns the table backing the type
func (t *TypeDef) TableName() string {
	if t.Table != "" {
		return t.Table
	}
	return ToSnakeCase(t.Name)
}

// ColumnName returns the column backing the attribute
func (a *AttributeDef) ColumnName() string {
	if a.Column != "" {
		return a.Column
	}
	return ToSnakeCase(a.Name)
}

// ToSnakeCase converts a string to snake_case
func ToSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			// camelCase boundary, or the end of an acronym ("HTTPServer" -> "http_server")
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' && prev != '_' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return strings.ReplaceAll(string(result), "__", "_")
}
