package resolver

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kosmojs/dev/internal/config"
	"github.com/kosmojs/dev/internal/paths"
	"github.com/kosmojs/dev/pkg/route"
)

// Identity decides whether a file is a route file.
type Identity struct {
	AppRoot        string
	SourceFolder   string
	PageExtensions []string
}

// NewIdentity returns the Identity for a project.
func NewIdentity(cfg *config.Config) Identity {
	return Identity{
		AppRoot:        cfg.AppRoot(),
		SourceFolder:   cfg.SourceFolder,
		PageExtensions: cfg.PageExtensions(),
	}
}

// Patterns returns the route file globs, relative to the source folder.
func (id Identity) Patterns() []string {
	page := "index.tsx"
	switch len(id.PageExtensions) {
	case 0:
	case 1:
		page = "index." + id.PageExtensions[0]
	default:
		page = "index.{" + strings.Join(id.PageExtensions, ",") + "}"
	}
	return []string{
		paths.APIDir + "/**/" + paths.RouteFile,
		paths.PagesDir + "/**/" + page,
	}
}

// Resolve reports whether file is a route file. On success it returns the
// route folder (api or pages) and the file path relative to it, using
// forward slashes. Relative paths are taken relative to the app root.
//
// A route file lives under <sourceFolder>/<folder>, is nested at least one
// directory deep and matches the folder's index file pattern.
func (id Identity) Resolve(file string) (folder, rel string, ok bool) {
	if !filepath.IsAbs(file) {
		file = filepath.Join(id.AppRoot, file)
	}

	r, err := filepath.Rel(id.AppRoot, file)
	if err != nil {
		return "", "", false
	}
	parts := strings.Split(filepath.ToSlash(r), "/")

	src := strings.Split(path.Clean(filepath.ToSlash(id.SourceFolder)), "/")
	if len(parts) < len(src)+3 {
		return "", "", false
	}
	for i, s := range src {
		if parts[i] != s {
			return "", "", false
		}
	}

	folder, rest := parts[len(src)], parts[len(src)+1:]
	if folder != paths.APIDir && folder != paths.PagesDir {
		return "", "", false
	}

	candidate := path.Join(folder, path.Join(rest...))
	for _, pattern := range id.Patterns() {
		if matched, _ := doublestar.Match(pattern, candidate); matched {
			return folder, path.Join(rest...), true
		}
	}
	return "", "", false
}

var (
	edgeNonWord = regexp.MustCompile(`^\W+|\W+$`)
	nonWordRun  = regexp.MustCompile(`\W+`)
)

// NewEntry derives the identity of the route file at rel inside folder.
func NewEntry(folder, rel, fileFullpath string) route.Entry {
	importPath := path.Dir(rel)
	tokens := route.ParsePath(importPath)

	names := make([]string, len(tokens))
	for i, t := range tokens {
		names[i] = t.Orig
	}

	return route.Entry{
		Name:         strings.Join(names, "/"),
		Folder:       folder,
		File:         rel,
		FileFullpath: fileFullpath,
		PathTokens:   tokens,
		ImportPath:   importPath,
		ImportName:   importName(importPath),
	}
}

// importName is the part of importPath before the first parameter,
// sanitized to an identifier and suffixed with a hash of the whole path.
func importName(importPath string) string {
	prefix, _, _ := strings.Cut(importPath, "[")
	prefix = edgeNonWord.ReplaceAllString(prefix, "")
	prefix = nonWordRun.ReplaceAllString(prefix, "_")
	return prefix + "_" + route.ShortHash(importPath)
}
