package signature

import (
	"context"
	"regexp"
	"strings"

	"github.com/kosmojs/dev/pkg/route"
)

var identifier = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

// AliasResolver is a TypeResolver that flattens a types file by inlining
// the type aliases and interfaces it declares. Imported names are left as
// written.
type AliasResolver struct{}

// Resolve implements TypeResolver.
func (AliasResolver) Resolve(ctx context.Context, text string, opts ResolveOptions) ([]route.ResolvedType, error) {
	src := newSource(text)

	var names []string
	bodies := map[string]string{}
	for _, st := range src.statements() {
		if _, name, body, ok := localDeclaration(src.cut(st)); ok && body != "" {
			names = append(names, name)
			bodies[name] = body
		}
	}

	r := &inliner{bodies: bodies, overrides: opts.Overrides, done: map[string]string{}}

	out := make([]route.ResolvedType, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rt := route.ResolvedType{Name: name, Text: r.resolve(name, 0)}
		for _, p := range opts.WithProperties {
			if p == name {
				rt.Properties = properties(rt.Text)
			}
		}
		out = append(out, rt)
	}
	return out, nil
}

type inliner struct {
	bodies    map[string]string
	overrides map[string]string
	done      map[string]string
}

const maxInlineDepth = 16

func (r *inliner) resolve(name string, depth int) string {
	if o, ok := r.overrides[name]; ok {
		return o
	}
	if text, ok := r.done[name]; ok {
		return text
	}
	body, ok := r.bodies[name]
	if !ok || depth > maxInlineDepth {
		return name
	}

	// guard against self reference while resolving
	r.done[name] = name
	text := r.inline(body, depth+1)
	r.done[name] = text
	return text
}

func (r *inliner) inline(text string, depth int) string {
	mask := string(maskSource(text))
	var b strings.Builder
	last := 0

	for _, loc := range identifier.FindAllStringIndex(mask, -1) {
		name := text[loc[0]:loc[1]]
		if _, isAlias := r.bodies[name]; !isAlias {
			if _, isOverride := r.overrides[name]; !isOverride {
				continue
			}
		}
		if loc[0] > 0 && (mask[loc[0]-1] == '.' || isIdentChar(mask[loc[0]-1])) {
			continue
		}
		if rest := strings.TrimLeft(mask[loc[1]:], " \t\n"); strings.HasPrefix(rest, ":") || strings.HasPrefix(rest, "?:") {
			continue
		}

		resolved := r.resolve(name, depth)
		if resolved == name {
			continue
		}
		b.WriteString(text[last:loc[0]])
		if strings.ContainsAny(resolved, "|&") {
			resolved = "(" + resolved + ")"
		}
		b.WriteString(resolved)
		last = loc[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// properties lists the top-level properties of an object type text.
func properties(text string) []route.TypeProperty {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil
	}
	src := newSource(text)
	var out []route.TypeProperty
	for _, p := range src.splitProperties(span{1, len(text) - 1}) {
		key, value, ok := strings.Cut(text[p.start:p.end], ":")
		if !ok {
			continue
		}
		out = append(out, route.TypeProperty{
			Name: strings.Trim(strings.TrimSuffix(strings.TrimSpace(key), "?"), `"'`),
			Text: strings.TrimSpace(value),
		})
	}
	return out
}
