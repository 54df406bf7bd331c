package navigation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/conduit-lang/metarest/internal/metamodel"
)

// DataProvider is the request-scoped view of stored instances
type DataProvider interface {
	metamodel.Loader

	// Find returns the instance of t with the given identifier, or nil when absent
	Find(ctx context.Context, t *metamodel.EntityType, id any) (*metamodel.Instance, error)

	// FindAll returns every instance of t ordered by identifier
	FindAll(ctx context.Context, t *metamodel.EntityType) ([]*metamodel.Instance, error)
}

// Request carries everything one navigation needs. It is built by the caller
// for a single request and never shared.
type Request struct {
	ID      string
	Catalog *metamodel.Catalog
	Data    DataProvider
	Logger  *zap.Logger
}

// Result is the value reached by a navigation
type Result struct {
	// Type is the addressed root type.
	Type *metamodel.EntityType
	// Value is an *metamodel.Instance, a []*metamodel.Instance, a scalar or a
	// decoded inline value.
	Value any
	// Listing is set when the path addressed every instance of a type.
	Listing bool
}

// Config configures a Navigator
type Config struct {
	// MaxDepth bounds the field chain length; zero means unbounded.
	MaxDepth int
}

// Navigator resolves paths against a request's data provider
type Navigator struct {
	config Config
}

// NewNavigator creates a navigator
func NewNavigator(config Config) *Navigator {
	return &Navigator{config: config}
}

// Resolve walks the path. Absent values at any step end the walk with a
// NotFound error. Cancellation of ctx is checked before every step.
func (n *Navigator) Resolve(ctx context.Context, req *Request, path *Path) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := req.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if n.config.MaxDepth > 0 && path.Depth() > n.config.MaxDepth {
		return nil, newError(KindInvalidPath, 2+n.config.MaxDepth, path.Fields[n.config.MaxDepth],
			"path exceeds the maximum depth of %d fields", n.config.MaxDepth)
	}

	t, err := req.Catalog.LookupEntity(path.TypeName)
	if err != nil {
		return nil, &Error{
			Kind:     KindUnknownType,
			Segment:  path.TypeName,
			Position: 0,
			Message:  fmt.Sprintf("unknown type %s", path.TypeName),
		}
	}

	if path.IsListing() {
		items, err := req.Data.FindAll(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", t.Name, err)
		}
		logger.Debug("listed instances",
			zap.String("type", t.Name),
			zap.Int("count", len(items)))
		return &Result{Type: t, Value: items, Listing: true}, nil
	}

	id, err := t.IDKind.Parse(path.ID)
	if err != nil {
		return nil, &Error{
			Kind:     KindUnsupportedConversion,
			Segment:  path.ID,
			Position: 1,
			Message:  fmt.Sprintf("identifier of %s must be %s", t.Name, t.IDKind),
			Err:      err,
		}
	}

	root, err := req.Data.Find(ctx, t, id)
	if err != nil {
		return nil, fmt.Errorf("find %s %v: %w", t.Name, id, err)
	}
	if root == nil {
		return nil, newError(KindNotFound, 1, path.ID, "no %s with identifier %s", t.Name, path.ID)
	}

	var current any = root
	for i, field := range path.Fields {
		position := i + 2
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		owner, ok := current.(*metamodel.Instance)
		if !ok {
			return nil, newError(KindAttributeAccess, position, field,
				"cannot read %s from a %s value", field, describe(current))
		}

		accessor, ok := owner.Type.Accessor(field)
		if !ok {
			return nil, newError(KindAttributeAccess, position, field,
				"%s has no attribute %s", owner.Type.Name, field)
		}

		value, err := accessor(ctx, owner, req.Data)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("read %s.%s: %w", owner.Type.Name, field, err)
		}
		if value == nil {
			return nil, newError(KindNotFound, position, field,
				"%s.%s is absent", owner, field)
		}

		logger.Debug("navigated",
			zap.String("from", owner.String()),
			zap.String("field", field))
		current = value
	}

	return &Result{Type: t, Value: current}, nil
}

func describe(v any) string {
	switch v.(type) {
	case []*metamodel.Instance:
		return "collection"
	case map[string]any, []any:
		return "inline"
	default:
		return "scalar"
	}
}
