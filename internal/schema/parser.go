package schema

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// --- Participle grammar structs ---
// These define the schema grammar using struct tags.

// fileAST is the top-level grammar: a sequence of type declarations.
type fileAST struct {
	Types []*typeAST `parser:"@@*"`
}

// typeAST parses: (entity|embeddable|abstract) Name [extends Base] [@annot...] { attr... }
type typeAST struct {
	Pos     lexer.Position
	Kind    string      `parser:"@('entity' | 'embeddable' | 'abstract')"`
	Name    string      `parser:"@Ident"`
	Extends string      `parser:"( 'extends' @Ident )?"`
	Annots  []*annotAST `parser:"@@*"`
	Attrs   []*attrAST  `parser:"'{' ( @@ ( ';' | ',' )? )* '}'"`
}

// attrAST parses: name: Type[?] [@annot...]
type attrAST struct {
	Pos      lexer.Position
	Name     string      `parser:"@Ident ':'"`
	Type     *typeRefAST `parser:"@@"`
	Nullable bool        `parser:"@'?'?"`
	Annots   []*annotAST `parser:"@@*"`
}

// typeRefAST parses either [Element] or Name
type typeRefAST struct {
	Element string `parser:"  '[' @Ident ']'"`
	Name    string `parser:"| @Ident"`
}

// annotAST parses: @name or @name("arg", ...)
type annotAST struct {
	Pos  lexer.Position
	Name string   `parser:"'@' @Ident"`
	Args []string `parser:"( '(' ( @String ( ',' @String )* )? ')' )?"`
}

var schemaLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Keyword", Pattern: `\b(entity|embeddable|abstract|extends)\b`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Punct", Pattern: `[{}\[\]():;,?@]`},
})

var schemaParser = participle.MustBuild[fileAST](
	participle.Lexer(schemaLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses schema source text into type definitions in declaration order.
// The returned definitions are not validated; see Validate.
func Parse(filename, source string) ([]*TypeDef, error) {
	ast, err := schemaParser.ParseString(filename, source)
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	types := make([]*TypeDef, 0, len(ast.Types))
	for _, t := range ast.Types {
		def, err := convertType(t)
		if err != nil {
			return nil, err
		}
		types = append(types, def)
	}
	return types, nil
}

func convertType(t *typeAST) (*TypeDef, error) {
	kind, err := ParseTypeKind(t.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Pos, err)
	}

	def := &TypeDef{
		Name:       t.Name,
		Kind:       kind,
		Extends:    t.Extends,
		Attributes: make([]*AttributeDef, 0, len(t.Attrs)),
		Location:   toLocation(t.Pos),
	}

	for _, annot := range t.Annots {
		switch annot.Name {
		case "table":
			if len(annot.Args) != 1 {
				return nil, fmt.Errorf("%s: @table takes exactly one argument", annot.Pos)
			}
			def.Table = annot.Args[0]
		default:
			return nil, fmt.Errorf("%s: unknown type annotation @%s", annot.Pos, annot.Name)
		}
	}

	for _, a := range t.Attrs {
		attr, err := convertAttribute(a)
		if err != nil {
			return nil, err
		}
		def.Attributes = append(def.Attributes, attr)
	}

	return def, nil
}

func convertAttribute(a *attrAST) (*AttributeDef, error) {
	attr := &AttributeDef{
		Name:     a.Name,
		Nullable: a.Nullable,
		Location: toLocation(a.Pos),
	}
	if a.Type.Element != "" {
		attr.TypeName = a.Type.Element
		attr.Collection = true
	} else {
		attr.TypeName = a.Type.Name
	}

	for _, annot := range a.Annots {
		switch annot.Name {
		case "id":
			if len(annot.Args) != 0 {
				return nil, fmt.Errorf("%s: @id takes no arguments", annot.Pos)
			}
			attr.ID = true
		case "column":
			if len(annot.Args) != 1 {
				return nil, fmt.Errorf("%s: @column takes exactly one argument", annot.Pos)
			}
			attr.Column = annot.Args[0]
		default:
			return nil, fmt.Errorf("%s: unknown attribute annotation @%s", annot.Pos, annot.Name)
		}
	}

	return attr, nil
}

func toLocation(pos lexer.Position) Location {
	return Location{File: pos.Filename, Line: pos.Line, Column: pos.Column}
}
