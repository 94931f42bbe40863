package route

import "fmt"

// Route folders under the source folder.
const (
	FolderAPI   = "api"
	FolderPages = "pages"
)

// PathToken is one directory segment of a route path.
// Exactly one of static (Param == nil) or param holds.
type PathToken struct {
	// Orig is the raw segment, e.g. "[id].json"
	Orig string `json:"orig"`

	// Base is the segment without its extension, e.g. "[id]"
	Base string `json:"base"`

	// Path is the URL-facing form of the segment. It equals Orig except
	// for a leading "index" segment, which maps to "/".
	Path string `json:"path"`

	// Ext is the trailing extension including the dot, or empty
	Ext string `json:"ext"`

	// Param is set for parameter segments
	Param *ParamSpec `json:"param,omitempty"`
}

// IsStatic reports whether the token is a literal segment.
func (t PathToken) IsStatic() bool {
	return t.Param == nil
}

// ParamSpec describes a path parameter.
type ParamSpec struct {
	// Name is the parameter name as written between the brackets
	Name string `json:"name"`

	// Const is an identifier-safe form of Name
	Const string `json:"const"`

	IsRequired bool `json:"isRequired,omitempty"`
	IsOptional bool `json:"isOptional,omitempty"`
	IsRest     bool `json:"isRest,omitempty"`
}

// Entry is a route as found on disk, before any signature processing.
type Entry struct {
	// Name is the route name, path tokens joined by "/" (e.g. "books/[category]")
	Name string `json:"name"`

	// Folder is either FolderAPI or FolderPages
	Folder string `json:"folder"`

	// File is the route file path relative to Folder
	File string `json:"file"`

	// FileFullpath is the absolute route file path
	FileFullpath string `json:"fileFullpath"`

	PathTokens []PathToken `json:"pathTokens"`

	// ImportPath is the directory of File
	ImportPath string `json:"importPath"`

	// ImportName is an identifier derived from ImportPath, unique per route
	ImportName string `json:"importName"`
}

// ParamsSchema returns the parameter specs of the entry in path order.
func (e Entry) ParamsSchema() []ParamSpec {
	schema := []ParamSpec{}
	for _, t := range e.PathTokens {
		if t.Param != nil {
			schema = append(schema, *t.Param)
		}
	}
	return schema
}

// ResolvedType is a type flattened to its literal representation by a
// type resolver.
type ResolvedType struct {
	Name       string         `json:"name"`
	Text       string         `json:"text"`
	Properties []TypeProperty `json:"properties,omitempty"`
}

// TypeProperty is one property of a resolved object type.
type TypeProperty struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// DeclarationRef names a declared symbol, optionally aliased and imported
// from a module path.
type DeclarationRef struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
	Path  string `json:"path,omitempty"`
}

// TypeDeclaration is a top-level declaration a route file contributes to
// its generated types artifact.
type TypeDeclaration struct {
	Text string `json:"text"`

	Import    *DeclarationRef `json:"importDeclaration,omitempty"`
	Export    *DeclarationRef `json:"exportDeclaration,omitempty"`
	TypeAlias *DeclarationRef `json:"typeAliasDeclaration,omitempty"`
	Interface *DeclarationRef `json:"interfaceDeclaration,omitempty"`
	Enum      *DeclarationRef `json:"enumDeclaration,omitempty"`
}

// PayloadType is the request payload type of one handler method.
type PayloadType struct {
	ID string `json:"id"`

	// ResponseTypeID links the payload to the response of the same method
	ResponseTypeID string `json:"responseTypeId,omitempty"`

	Method         string        `json:"method"`
	SkipValidation bool          `json:"skipValidation"`
	IsOptional     bool          `json:"isOptional"`
	Text           string        `json:"text,omitempty"`
	ResolvedType   *ResolvedType `json:"resolvedType,omitempty"`
}

// ResponseType is the response body type of one handler method.
type ResponseType struct {
	ID             string        `json:"id"`
	Method         string        `json:"method"`
	SkipValidation bool          `json:"skipValidation"`
	Text           string        `json:"text,omitempty"`
	ResolvedType   *ResolvedType `json:"resolvedType,omitempty"`
}

// APIParams holds the parameter schema of an API route.
type APIParams struct {
	// ID is the generated params type name
	ID           string        `json:"id"`
	Schema       []ParamSpec   `json:"schema"`
	ResolvedType *ResolvedType `json:"resolvedType,omitempty"`
}

// APIRoute is a resolved API route.
type APIRoute struct {
	Entry

	Params        APIParams `json:"params"`
	NumericParams []string  `json:"numericParams"`

	// OptionalParams is true when the schema is empty or no param is required
	OptionalParams bool `json:"optionalParams"`

	Methods          []string          `json:"methods"`
	TypeDeclarations []TypeDeclaration `json:"typeDeclarations"`
	PayloadTypes     []PayloadType     `json:"payloadTypes"`
	ResponseTypes    []ResponseType    `json:"responseTypes"`

	// ReferencedFiles are absolute paths of files the route's types depend on
	ReferencedFiles []string `json:"referencedFiles"`
}

// References reports whether file is one of the route's referenced files.
func (r *APIRoute) References(file string) bool {
	for _, f := range r.ReferencedFiles {
		if f == file {
			return true
		}
	}
	return false
}

// PageParams holds the parameter schema of a page route.
type PageParams struct {
	Schema []ParamSpec `json:"schema"`
}

// PageRoute is a resolved page route.
type PageRoute struct {
	Entry

	Params PageParams `json:"params"`
}

// Kind tags a ResolverEntry.
type Kind int

const (
	KindAPI Kind = iota + 1
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindPage:
		return "page"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ResolverEntry is the result of running a route resolver.
// API is set when Kind is KindAPI, Page when Kind is KindPage.
type ResolverEntry struct {
	Kind Kind       `json:"kind"`
	API  *APIRoute  `json:"api,omitempty"`
	Page *PageRoute `json:"page,omitempty"`
}

// Route returns the common entry of the resolved route.
func (e ResolverEntry) Route() Entry {
	switch e.Kind {
	case KindAPI:
		if e.API != nil {
			return e.API.Entry
		}
	case KindPage:
		if e.Page != nil {
			return e.Page.Entry
		}
	}
	return Entry{}
}

// EventKind classifies a filesystem event.
type EventKind int

const (
	Created EventKind = iota + 1
	Updated
	Deleted
)

func (k EventKind) String() string {
	switch k {
	case Created:
		return "create"
	case Updated:
		return "update"
	case Deleted:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *EventKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "create":
		*k = Created
	case "update":
		*k = Updated
	case "delete":
		*k = Deleted
	default:
		return fmt.Errorf("unknown event kind %q", b)
	}
	return nil
}

// Event is a filesystem change delivered to generators.
type Event struct {
	Kind EventKind `json:"kind"`

	// File is the absolute path of the changed file
	File string `json:"file"`
}
