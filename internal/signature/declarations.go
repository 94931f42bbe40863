package signature

import (
	"strings"

	"github.com/kosmojs/dev/pkg/route"
)

// importDeclarations turns one import statement into a declaration per
// binding. Framework imports of defineRoute are dropped.
func importDeclarations(text string, relPath func(string) string) []route.TypeDeclaration {
	m := importStmt.FindStringSubmatch(clean(text))
	if m == nil {
		return nil
	}
	typeOnly, clause, spec := m[1] != "", strings.TrimSpace(m[2]), rewrite(m[3], relPath)

	keyword := "import "
	if typeOnly {
		keyword = "import type "
	}

	var out []route.TypeDeclaration
	add := func(ref route.DeclarationRef, text string) {
		if ref.Name == "defineRoute" || ref.Alias == "defineRoute" {
			return
		}
		r := ref
		out = append(out, route.TypeDeclaration{Text: text, Import: &r})
	}

	if i := strings.Index(clause, "{"); i >= 0 {
		j := strings.LastIndex(clause, "}")
		if j > i {
			for _, b := range bindings(clause[i+1 : j]) {
				inline := ""
				if b.typeOnly && !typeOnly {
					inline = "type "
				}
				add(route.DeclarationRef{Name: b.name, Alias: b.alias, Path: spec},
					keyword+"{ "+inline+b.String()+" } from \""+spec+"\"")
			}
		}
		clause = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(clause[:i]), ","))
	}

	switch {
	case strings.HasPrefix(clause, "* as "):
		alias := strings.TrimSpace(strings.TrimPrefix(clause, "* as "))
		add(route.DeclarationRef{Name: "*", Alias: alias, Path: spec},
			keyword+"* as "+alias+" from \""+spec+"\"")
	case clause != "":
		def := strings.TrimSpace(strings.SplitN(clause, ",", 2)[0])
		add(route.DeclarationRef{Name: "default", Alias: def, Path: spec},
			keyword+def+" from \""+spec+"\"")
	}

	return out
}

// exportDeclarations turns `export { A, B as C } from "x"` into a
// declaration per binding.
func exportDeclarations(text string, relPath func(string) string) []route.TypeDeclaration {
	m := exportFrom.FindStringSubmatch(clean(text))
	if m == nil {
		return nil
	}
	typeOnly := m[1] != ""
	spec := m[3]
	if spec != "" {
		spec = rewrite(spec, relPath)
	}

	keyword := "export "
	if typeOnly {
		keyword = "export type "
	}

	var out []route.TypeDeclaration
	for _, b := range bindings(m[2]) {
		text := keyword + "{ " + b.String() + " }"
		if spec != "" {
			text += " from \"" + spec + "\""
		}
		ref := route.DeclarationRef{Name: b.name, Alias: b.alias, Path: spec}
		out = append(out, route.TypeDeclaration{Text: text, Export: &ref})
	}
	return out
}

// localDeclaration recognises a type alias, interface or enum. For
// aliases and interfaces it also returns the declared body.
func localDeclaration(text string) (route.TypeDeclaration, string, string, bool) {
	decl := clean(text)
	switch {
	case typeAlias.MatchString(decl):
		name := typeAlias.FindStringSubmatch(decl)[1]
		body := ""
		if i := strings.Index(decl, "="); i >= 0 {
			body = strings.TrimSpace(decl[i+1:])
		}
		return route.TypeDeclaration{Text: text, TypeAlias: &route.DeclarationRef{Name: name}}, name, body, true
	case interfaceDecl.MatchString(decl):
		name := interfaceDecl.FindStringSubmatch(decl)[1]
		body := ""
		if i := strings.Index(decl, "{"); i >= 0 {
			body = decl[i:]
		}
		return route.TypeDeclaration{Text: text, Interface: &route.DeclarationRef{Name: name}}, name, body, true
	case enumDecl.MatchString(decl):
		name := enumDecl.FindStringSubmatch(decl)[1]
		return route.TypeDeclaration{Text: text, Enum: &route.DeclarationRef{Name: name}}, name, "", true
	}
	return route.TypeDeclaration{}, "", "", false
}

type binding struct {
	name     string
	alias    string
	typeOnly bool
}

func (b binding) String() string {
	if b.alias != "" {
		return b.name + " as " + b.alias
	}
	return b.name
}

func bindings(list string) []binding {
	var out []binding
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var b binding
		if strings.HasPrefix(part, "type ") {
			b.typeOnly = true
			part = strings.TrimSpace(strings.TrimPrefix(part, "type "))
		}
		if name, alias, ok := strings.Cut(part, " as "); ok {
			b.name, b.alias = strings.TrimSpace(name), strings.TrimSpace(alias)
		} else {
			b.name = part
		}
		out = append(out, b)
	}
	return out
}

// clean strips comments and a trailing semicolon.
func clean(text string) string {
	return strings.TrimSpace(strings.TrimRight(stripComments(text), "; "))
}

func rewrite(spec string, relPath func(string) string) string {
	if relPath != nil && (strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")) {
		return relPath(spec)
	}
	return spec
}

// allOptional reports whether a payload type can be omitted: an object
// literal whose properties are all optional, a Partial<...>, or a local
// alias of either.
func allOptional(text string, aliases map[string]string) bool {
	for range 8 {
		body, ok := aliases[text]
		if !ok {
			break
		}
		text = body
	}

	if strings.HasPrefix(text, "Partial<") {
		return true
	}
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return false
	}

	src := newSource(text)
	props := src.splitProperties(span{1, len(text) - 1})
	for _, p := range props {
		key, _, ok := strings.Cut(strings.TrimSpace(text[p.start:p.end]), ":")
		if !ok || !strings.HasSuffix(strings.TrimSpace(key), "?") {
			return false
		}
	}
	return true
}
