package schema

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// Provider enumerates the managed types of a schema
type Provider interface {
	// Types returns the validated type definitions in declaration order
	Types(ctx context.Context) ([]*TypeDef, error)

	// Fingerprint identifies the schema content; equal sources yield equal fingerprints
	Fingerprint() string
}

// SourceProvider serves types parsed from in-memory schema text
type SourceProvider struct {
	name   string
	source string
}

// NewSourceProvider creates a provider over schema text. The name is used in error locations.
func NewSourceProvider(name, source string) *SourceProvider {
	return &SourceProvider{name: name, source: source}
}

// Types parses and validates the schema text
func (p *SourceProvider) Types(ctx context.Context) ([]*TypeDef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defs, err := Parse(p.name, p.source)
	if err != nil {
		return nil, err
	}
	if err := Validate(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// Fingerprint returns the hex sha256 of the schema text
func (p *SourceProvider) Fingerprint() string {
	return fingerprint(p.source)
}

// FileProvider serves types parsed from a schema file on disk.
// The file is read once, at construction.
type FileProvider struct {
	*SourceProvider
	path string
}

// NewFileProvider reads the schema file at path
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return &FileProvider{
		SourceProvider: NewSourceProvider(path, string(data)),
		path:           path,
	}, nil
}

// Path returns the schema file path
func (p *FileProvider) Path() string {
	return p.path
}

func fingerprint(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}
