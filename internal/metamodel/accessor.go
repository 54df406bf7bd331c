package metamodel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conduit-lang/metarest/internal/schema"
)

// Loader fetches the instances an association or collection points at.
// Implementations are request scoped.
type Loader interface {
	// LoadReference returns the target of a single-valued association, or nil when absent
	LoadReference(ctx context.Context, owner *Instance, attr *Attribute) (*Instance, error)

	// LoadCollection returns the ordered targets of a collection attribute
	LoadCollection(ctx context.Context, owner *Instance, attr *Attribute) ([]*Instance, error)
}

// Accessor reads one attribute from a live instance. It returns nil when the
// value is absent, a scalar, an *Instance, a []*Instance or, for relations to
// types outside the catalog, the decoded inline value.
type Accessor func(ctx context.Context, owner *Instance, loader Loader) (any, error)

// AccessError reports a failed property read
type AccessError struct {
	Type      string
	Attribute string
	Err       error
}

// Error implements the error interface
func (e *AccessError) Error() string {
	return fmt.Sprintf("read %s.%s: %v", e.Type, e.Attribute, e.Err)
}

// Unwrap returns the underlying error
func (e *AccessError) Unwrap() error {
	return e.Err
}

// newAccessor selects the accessor for an attribute based on its kind and target
func newAccessor(attr *Attribute) Accessor {
	switch {
	case attr.Kind == Scalar:
		return scalarAccessor(attr)
	case attr.Target == nil:
		return inlineAccessor(attr)
	case attr.Target.Kind == schema.KindEmbeddable && attr.Kind == Association:
		return embeddedAccessor(attr)
	case attr.Target.Kind == schema.KindEmbeddable:
		return embeddedCollectionAccessor(attr)
	case attr.Kind == Association:
		return referenceAccessor(attr)
	default:
		return collectionAccessor(attr)
	}
}

func scalarAccessor(attr *Attribute) Accessor {
	return func(_ context.Context, owner *Instance, _ Loader) (any, error) {
		v, ok := owner.Values[attr.Name]
		if !ok || v == nil {
			return nil, nil
		}
		return attr.FormatValue(v), nil
	}
}

func inlineAccessor(attr *Attribute) Accessor {
	return func(_ context.Context, owner *Instance, _ Loader) (any, error) {
		v, err := decodeInline(owner.Values[attr.Name])
		if err != nil {
			return nil, &AccessError{Type: owner.Type.Name, Attribute: attr.Name, Err: err}
		}
		return v, nil
	}
}

func embeddedAccessor(attr *Attribute) Accessor {
	return func(_ context.Context, owner *Instance, _ Loader) (any, error) {
		v, err := decodeInline(owner.Values[attr.Name])
		if err != nil {
			return nil, &AccessError{Type: owner.Type.Name, Attribute: attr.Name, Err: err}
		}
		if v == nil {
			return nil, nil
		}
		values, ok := v.(map[string]any)
		if !ok {
			return nil, &AccessError{Type: owner.Type.Name, Attribute: attr.Name,
				Err: fmt.Errorf("embedded %s is not an object", attr.Target.Name)}
		}
		return &Instance{Type: attr.Target, Values: values}, nil
	}
}

func embeddedCollectionAccessor(attr *Attribute) Accessor {
	return func(_ context.Context, owner *Instance, _ Loader) (any, error) {
		v, err := decodeInline(owner.Values[attr.Name])
		if err != nil {
			return nil, &AccessError{Type: owner.Type.Name, Attribute: attr.Name, Err: err}
		}
		if v == nil {
			return []*Instance{}, nil
		}
		items, ok := v.([]any)
		if !ok {
			return nil, &AccessError{Type: owner.Type.Name, Attribute: attr.Name,
				Err: fmt.Errorf("embedded %s collection is not an array", attr.Target.Name)}
		}
		out := make([]*Instance, 0, len(items))
		for _, item := range items {
			values, ok := item.(map[string]any)
			if !ok {
				return nil, &AccessError{Type: owner.Type.Name, Attribute: attr.Name,
					Err: fmt.Errorf("embedded %s is not an object", attr.Target.Name)}
			}
			out = append(out, &Instance{Type: attr.Target, Values: values})
		}
		return out, nil
	}
}

func referenceAccessor(attr *Attribute) Accessor {
	return func(ctx context.Context, owner *Instance, loader Loader) (any, error) {
		target, err := loader.LoadReference(ctx, owner, attr)
		if err != nil {
			return nil, err
		}
		if target == nil {
			return nil, nil
		}
		return target, nil
	}
}

func collectionAccessor(attr *Attribute) Accessor {
	return func(ctx context.Context, owner *Instance, loader Loader) (any, error) {
		items, err := loader.LoadCollection(ctx, owner, attr)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []*Instance{}
		}
		return items, nil
	}
}

// decodeInline decodes a value stored as JSON text. Values that were already
// decoded, such as attributes nested inside an embedded object, pass through.
func decodeInline(raw any) (any, error) {
	var data []byte
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return v, nil
	}
	if len(data) == 0 {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode inline value: %w", err)
	}
	return out, nil
}
