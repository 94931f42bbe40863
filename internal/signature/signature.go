package signature

import (
	"context"

	"github.com/kosmojs/dev/pkg/route"
)

// Target identifies the route to extract.
type Target struct {
	ImportName     string
	FileFullpath   string
	OptionalParams bool
}

// Options tunes extraction.
type Options struct {
	// WithReferencedFiles follows relative imports and reports every file
	// the route depends on.
	WithReferencedFiles bool

	// RelPath rewrites a relative import specifier so it resolves from the
	// generated types file. Nil keeps specifiers as written.
	RelPath func(spec string) string
}

// Refinement is the refined type of one path parameter.
type Refinement struct {
	// Index is the parameter position
	Index int

	// Text is the base type, e.g. "number" for TRefine<number, {...}>
	Text string

	// Full is the element as written
	Full string
}

// Signature is what a route file declares.
type Signature struct {
	TypeDeclarations  []route.TypeDeclaration
	ParamsRefinements []Refinement
	Methods           []string
	PayloadTypes      []route.PayloadType
	ResponseTypes     []route.ResponseType

	// ReferencedFiles are absolute paths, sorted
	ReferencedFiles []string
}

// Extractor resolves route signatures.
type Extractor interface {
	ResolveRouteSignature(ctx context.Context, target Target, opts Options) (*Signature, error)

	// Refresh drops anything cached for file.
	Refresh(file string)
}

// ResolveOptions tunes type resolution.
type ResolveOptions struct {
	// Overrides replace type names with fixed text, e.g. "never"
	Overrides map[string]string

	// WithProperties lists type names whose properties should be reported
	WithProperties []string
}

// TypeResolver flattens declarations to literal types.
type TypeResolver interface {
	Resolve(ctx context.Context, text string, opts ResolveOptions) ([]route.ResolvedType, error)
}
