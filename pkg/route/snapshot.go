package route

import "slices"

// Snapshot is a value copy of the resolved routes handed to generators.
type Snapshot []ResolverEntry

// NewSnapshot deep-copies entries.
func NewSnapshot(entries []ResolverEntry) Snapshot {
	s := make(Snapshot, len(entries))
	for i, e := range entries {
		s[i] = e.Clone()
	}
	return s
}

// APIRoutes returns the API routes of the snapshot in order.
func (s Snapshot) APIRoutes() []*APIRoute {
	var out []*APIRoute
	for _, e := range s {
		if e.Kind == KindAPI && e.API != nil {
			out = append(out, e.API)
		}
	}
	return out
}

// PageRoutes returns the page routes of the snapshot in order.
func (s Snapshot) PageRoutes() []*PageRoute {
	var out []*PageRoute
	for _, e := range s {
		if e.Kind == KindPage && e.Page != nil {
			out = append(out, e.Page)
		}
	}
	return out
}

// Clone returns a deep copy of e.
func (e ResolverEntry) Clone() ResolverEntry {
	c := ResolverEntry{Kind: e.Kind}
	if e.API != nil {
		c.API = e.API.Clone()
	}
	if e.Page != nil {
		c.Page = e.Page.Clone()
	}
	return c
}

// Clone returns a deep copy of e.
func (e Entry) Clone() Entry {
	c := e
	c.PathTokens = make([]PathToken, len(e.PathTokens))
	for i, t := range e.PathTokens {
		c.PathTokens[i] = t.Clone()
	}
	return c
}

// Clone returns a deep copy of t.
func (t PathToken) Clone() PathToken {
	c := t
	if t.Param != nil {
		p := *t.Param
		c.Param = &p
	}
	return c
}

// Clone returns a deep copy of r.
func (r *APIRoute) Clone() *APIRoute {
	if r == nil {
		return nil
	}
	c := *r
	c.Entry = r.Entry.Clone()
	c.Params = r.Params.Clone()
	c.NumericParams = cloneSlice(r.NumericParams)
	c.Methods = cloneSlice(r.Methods)
	c.ReferencedFiles = cloneSlice(r.ReferencedFiles)

	c.TypeDeclarations = make([]TypeDeclaration, len(r.TypeDeclarations))
	for i, d := range r.TypeDeclarations {
		c.TypeDeclarations[i] = d.Clone()
	}
	c.PayloadTypes = make([]PayloadType, len(r.PayloadTypes))
	for i, p := range r.PayloadTypes {
		p.ResolvedType = p.ResolvedType.Clone()
		c.PayloadTypes[i] = p
	}
	c.ResponseTypes = make([]ResponseType, len(r.ResponseTypes))
	for i, p := range r.ResponseTypes {
		p.ResolvedType = p.ResolvedType.Clone()
		c.ResponseTypes[i] = p
	}
	return &c
}

// Clone returns a deep copy of r.
func (r *PageRoute) Clone() *PageRoute {
	if r == nil {
		return nil
	}
	c := *r
	c.Entry = r.Entry.Clone()
	c.Params.Schema = cloneSlice(r.Params.Schema)
	return &c
}

// Clone returns a deep copy of p.
func (p APIParams) Clone() APIParams {
	return APIParams{
		ID:           p.ID,
		Schema:       cloneSlice(p.Schema),
		ResolvedType: p.ResolvedType.Clone(),
	}
}

// Clone returns a deep copy of t.
func (t *ResolvedType) Clone() *ResolvedType {
	if t == nil {
		return nil
	}
	c := *t
	c.Properties = slices.Clone(t.Properties)
	return &c
}

// Clone returns a deep copy of d.
func (d TypeDeclaration) Clone() TypeDeclaration {
	c := d
	c.Import = d.Import.clone()
	c.Export = d.Export.clone()
	c.TypeAlias = d.TypeAlias.clone()
	c.Interface = d.Interface.clone()
	c.Enum = d.Enum.clone()
	return c
}

func (r *DeclarationRef) clone() *DeclarationRef {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// cloneSlice copies s, keeping empty slices non-nil so they encode as [].
func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}
