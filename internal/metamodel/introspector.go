package metamodel

import (
	"context"
	"sync"

	"github.com/conduit-lang/metarest/internal/schema"
)

// Introspector builds the catalog on first use and serves it for the life of
// the process. The build runs at most once; its result, including a failure,
// is shared by every caller.
type Introspector struct {
	provider schema.Provider

	once    sync.Once
	catalog *Catalog
	err     error
}

// NewIntrospector creates an introspector over a schema provider
func NewIntrospector(provider schema.Provider) *Introspector {
	return &Introspector{provider: provider}
}

// Catalog returns the built catalog, building it if needed. Cancelling ctx does
// not abort a build already shared with other callers.
func (i *Introspector) Catalog(ctx context.Context) (*Catalog, error) {
	i.once.Do(func() {
		i.catalog, i.err = Build(context.WithoutCancel(ctx), i.provider)
	})
	return i.catalog, i.err
}

// LookupType returns the descriptor for name, or an error wrapping ErrUnknownType
func (i *Introspector) LookupType(ctx context.Context, name string) (*EntityType, error) {
	catalog, err := i.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Lookup(name)
}

// ListTypes returns all managed types in catalog order
func (i *Introspector) ListTypes(ctx context.Context) ([]*EntityType, error) {
	catalog, err := i.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Types(), nil
}

// Edges returns the relationship graph of the catalog
func (i *Introspector) Edges(ctx context.Context) ([]LinkEdge, error) {
	catalog, err := i.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Edges(), nil
}
