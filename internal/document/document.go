// Package document renders the catalog and navigated values as JSON documents.
package document

import (
	"errors"
	"fmt"
	"time"

	"github.com/conduit-lang/metarest/internal/metamodel"
)

// ErrNoValue is returned when asked to render an absent value
var ErrNoValue = errors.New("no value to render")

// CatalogDocument describes every catalog type and the links between them
type CatalogDocument struct {
	Types []TypeDocument `json:"types"`
	Links []LinkDocument `json:"links"`
}

// TypeDocument describes one catalog type
type TypeDocument struct {
	Name       string              `json:"name"`
	Kind       string              `json:"kind"`
	Supertype  string              `json:"supertype,omitempty"`
	Attributes []AttributeDocument `json:"attributes"`
}

// AttributeDocument describes one attribute of a type
type AttributeDocument struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// LinkDocument is one edge of the type graph
type LinkDocument struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// ResourceDocument holds the scalar attributes of one resolved value
type ResourceDocument struct {
	Attributes map[string]interface{} `json:"attributes"`
}

// Catalog renders the catalog document. Types appear in catalog order and
// links in edge order, so repeated renderings are identical.
func Catalog(catalog *metamodel.Catalog) *CatalogDocument {
	doc := &CatalogDocument{
		Types: []TypeDocument{},
		Links: []LinkDocument{},
	}

	for _, t := range catalog.Types() {
		td := TypeDocument{
			Name:       t.Name,
			Kind:       t.Kind.String(),
			Attributes: []AttributeDocument{},
		}
		if t.Supertype != nil {
			td.Supertype = t.Supertype.Name
		}
		for _, attr := range t.Attributes() {
			td.Attributes = append(td.Attributes, AttributeDocument{Name: attr.Name, Type: attr.TypeLabel()})
		}
		doc.Types = append(doc.Types, td)
	}

	for _, edge := range catalog.Edges() {
		doc.Links = append(doc.Links, LinkDocument{
			Type:   string(edge.Kind),
			Source: edge.Source,
			Target: edge.Target,
		})
	}

	return doc
}

// Resource renders a navigated value. Instances render their scalar attributes,
// collections render as an array of instance documents and any other value
// renders as a single attribute named "value".
func Resource(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case nil:
		return nil, ErrNoValue
	case *metamodel.Instance:
		if v == nil {
			return nil, ErrNoValue
		}
		return Instance(v), nil
	case []*metamodel.Instance:
		docs := make([]*ResourceDocument, 0, len(v))
		for _, inst := range v {
			docs = append(docs, Instance(inst))
		}
		return docs, nil
	default:
		return &ResourceDocument{Attributes: map[string]interface{}{"value": scalarValue(v)}}, nil
	}
}

// Instance renders the scalar attributes of an instance's type. Association
// and collection values are not embedded; they are reachable by navigation.
func Instance(inst *metamodel.Instance) *ResourceDocument {
	attrs := make(map[string]interface{})
	for _, attr := range inst.Type.ScalarAttributes() {
		attrs[attr.Name] = scalarValue(attr.FormatValue(inst.Values[attr.Name]))
	}
	return &ResourceDocument{Attributes: attrs}
}

// scalarValue converts driver values to their JSON form
func scalarValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}
