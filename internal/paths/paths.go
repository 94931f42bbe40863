// Package paths maps the project's well-known directories to filesystem
// locations.
//
// Source directories (api, pages, config) live under the source folder.
// Lib directories live under lib/<sourceFolder>/ so that several source
// folders can share one project root:
//
//	<appRoot>/
//	├── src/api/...                  Dir("api")
//	└── lib/src/api/<route>/...      Dir("apiLib")
package paths

import "path/filepath"

// Well-known directory names.
const (
	APIDir       = "api"
	PagesDir     = "pages"
	ConfigDir    = "config"
	LibDir       = "lib"
	APILibDir    = "api"
	FetchLibDir  = "fetch"
	PagesLibDir  = "pages"
	CacheFile    = "cache.json"
	TypesFile    = "types.ts"
	ConfigFile   = "kosmo.json"
	RouteFile    = "index.ts"
	APIIndexFile = "api.ts"
)

// Dir identifies a well-known directory.
type Dir int

const (
	// Source is the source folder itself
	Source Dir = iota
	API
	Pages
	Config
	Lib
	APILib
	FetchLib
	PagesLib
)

// Resolver resolves well-known directories for one app root and source
// folder.
type Resolver struct {
	AppRoot      string
	SourceFolder string
}

// New returns a Resolver for the given app root and source folder.
func New(appRoot, sourceFolder string) Resolver {
	return Resolver{AppRoot: appRoot, SourceFolder: sourceFolder}
}

// Resolve joins elem onto the absolute location of dir.
func (r Resolver) Resolve(dir Dir, elem ...string) string {
	return filepath.Join(append([]string{r.AppRoot, r.Rel(dir)}, elem...)...)
}

// Rel returns the location of dir relative to the app root.
func (r Resolver) Rel(dir Dir) string {
	switch dir {
	case API:
		return filepath.Join(r.SourceFolder, APIDir)
	case Pages:
		return filepath.Join(r.SourceFolder, PagesDir)
	case Config:
		return filepath.Join(r.SourceFolder, ConfigDir)
	case Lib:
		return LibDir
	case APILib:
		return filepath.Join(LibDir, r.SourceFolder, APILibDir)
	case FetchLib:
		return filepath.Join(LibDir, r.SourceFolder, FetchLibDir)
	case PagesLib:
		return filepath.Join(LibDir, r.SourceFolder, PagesLibDir)
	default:
		return r.SourceFolder
	}
}
