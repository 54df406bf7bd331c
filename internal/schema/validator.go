package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error with context
type ValidationError struct {
	Type      string
	Attribute string
	Message   string
	Location  Location
	Hint      string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Location.Line > 0 {
		b.WriteString(fmt.Sprintf("line %d, column %d: ", e.Location.Line, e.Location.Column))
	}

	if e.Type != "" {
		b.WriteString(e.Type)
		if e.Attribute != "" {
			b.WriteString(".")
			b.WriteString(e.Attribute)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// ValidationErrors aggregates every problem found in a schema
type ValidationErrors struct {
	Errors []*ValidationError
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v.Errors))
	for _, err := range v.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("schema validation failed with %d errors:\n%s",
		len(v.Errors), strings.Join(msgs, "\n"))
}

// Validator checks a set of type definitions for structural consistency
type Validator struct {
	types  map[string]*TypeDef
	errors []*ValidationError
}

// Validate runs every structural check over the definitions and returns
// a *ValidationErrors listing all failures, or nil.
func Validate(defs []*TypeDef) error {
	v := &Validator{types: make(map[string]*TypeDef, len(defs))}
	return v.Validate(defs)
}

// Validate validates the definitions as one schema
func (v *Validator) Validate(defs []*TypeDef) error {
	v.errors = nil
	v.types = make(map[string]*TypeDef, len(defs))

	for _, def := range defs {
		if _, exists := v.types[def.Name]; exists {
			v.addError(def, nil, fmt.Sprintf("type %s is declared more than once", def.Name), "")
			continue
		}
		v.types[def.Name] = def
	}

	for _, def := range defs {
		if v.types[def.Name] != def {
			continue
		}
		if !v.validateInheritance(def) {
			continue
		}
		v.validateAttributes(def)
		v.validateIdentity(def)
	}

	if len(v.errors) > 0 {
		return &ValidationErrors{Errors: v.errors}
	}
	return nil
}

// validateInheritance rejects supertype cycles and kind mismatches
func (v *Validator) validateInheritance(def *TypeDef) bool {
	seen := map[string]bool{def.Name: true}
	current := def
	for current.Extends != "" {
		parent, ok := v.types[current.Extends]
		if !ok {
			// Undeclared base classes are allowed; they contribute nothing.
			return true
		}
		if seen[parent.Name] {
			v.addError(def, nil, fmt.Sprintf("inheritance cycle through %s", parent.Name), "")
			return false
		}
		if parent.Kind == KindEmbeddable && def.Kind != KindEmbeddable {
			v.addError(def, nil, fmt.Sprintf("%s %s cannot extend embeddable %s", def.Kind, def.Name, parent.Name), "")
			return false
		}
		seen[parent.Name] = true
		current = parent
	}
	return true
}

// validateAttributes checks attribute name uniqueness including inherited attributes
func (v *Validator) validateAttributes(def *TypeDef) {
	inherited := make(map[string]string)
	for _, ancestor := range v.ancestors(def) {
		for _, attr := range ancestor.Attributes {
			inherited[attr.Name] = ancestor.Name
		}
	}

	own := make(map[string]bool, len(def.Attributes))
	for _, attr := range def.Attributes {
		if own[attr.Name] {
			v.addError(def, attr, "attribute is declared more than once", "")
			continue
		}
		own[attr.Name] = true
		if from, ok := inherited[attr.Name]; ok {
			v.addError(def, attr, fmt.Sprintf("attribute shadows inherited attribute from %s", from), "")
		}
		if attr.ID && !attr.IsScalar() {
			v.addError(def, attr, "@id attribute must have a primitive type", "use string, int or decimal")
		}
		if attr.ID && attr.Nullable {
			v.addError(def, attr, "@id attribute cannot be nullable", "remove the trailing ?")
		}
		if !attr.IsScalar() {
			if target, ok := v.types[attr.TypeName]; ok && target.Kind == KindAbstract {
				v.addError(def, attr, fmt.Sprintf("attribute cannot reference abstract type %s", target.Name),
					"reference a concrete entity that extends it")
			}
		}
	}
}

// validateIdentity requires exactly one identifier on every entity
func (v *Validator) validateIdentity(def *TypeDef) {
	var ids []string
	for _, ancestor := range v.ancestors(def) {
		for _, attr := range ancestor.Attributes {
			if attr.ID {
				ids = append(ids, ancestor.Name+"."+attr.Name)
			}
		}
	}
	for _, attr := range def.Attributes {
		if attr.ID {
			ids = append(ids, def.Name+"."+attr.Name)
		}
	}

	switch {
	case def.Kind == KindEntity && len(ids) == 0:
		v.addError(def, nil, "entity has no @id attribute", "mark one primitive attribute with @id")
	case len(ids) > 1:
		v.addError(def, nil, fmt.Sprintf("multiple @id attributes: %s", strings.Join(ids, ", ")), "")
	case def.Kind == KindEmbeddable && len(ids) == 1:
		v.addError(def, nil, "embeddable types cannot declare @id", "")
	}
}

// ancestors returns the declared supertypes of def, nearest last
func (v *Validator) ancestors(def *TypeDef) []*TypeDef {
	var chain []*TypeDef
	seen := map[string]bool{def.Name: true}
	for name := def.Extends; name != ""; {
		parent, ok := v.types[name]
		if !ok || seen[name] {
			break
		}
		seen[name] = true
		chain = append([]*TypeDef{parent}, chain...)
		name = parent.Extends
	}
	return chain
}

func (v *Validator) addError(def *TypeDef, attr *AttributeDef, message, hint string) {
	err := &ValidationError{
		Type:     def.Name,
		Message:  message,
		Location: def.Location,
		Hint:     hint,
	}
	if attr != nil {
		err.Attribute = attr.Name
		err.Location = attr.Location
	}
	v.errors = append(v.errors, err)
}
