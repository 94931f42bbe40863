package templates

import (
	"github.com/kosmojs/dev/pkg/route"
)

// TypesData is the data of the types template.
type TypesData struct {
	Params           route.APIParams
	ParamsSchema     []ParamField
	TypeDeclarations []route.TypeDeclaration
	PayloadTypes     []route.PayloadType
	ResponseTypes    []route.ResponseType
}

// ParamField is a path parameter with its TypeScript type.
type ParamField struct {
	route.ParamSpec
	Type string
}

// ResolvedTypesData is the data of the resolved-types template.
type ResolvedTypesData struct {
	ResolvedTypes []route.ResolvedType
}

// StubData is the data of the placeholder templates.
type StubData struct {
	Name       string
	ImportName string
	Params     []route.ParamSpec
}

// RouteData is the data of the per-route generator templates.
type RouteData struct {
	Route *route.APIRoute

	// Path is the router pattern of the route
	Path string

	// LibImport is the import path of the route's lib folder
	LibImport string

	// BaseURL prefixes request URLs in fetch clients
	BaseURL string
}

// IndexRoute is one row of a route table.
type IndexRoute struct {
	Name       string
	ImportName string
	ImportPath string
	Path       string
	Methods    []string

	// Meta is a JSON object literal, or empty
	Meta string
}

// IndexData is the data of the route table templates.
type IndexData struct {
	Routes []IndexRoute

	// SourceFolder is the project's source folder name
	SourceFolder string
}

var builtins = map[string]*Template{
	"types": {
		Name:        "types",
		Description: "Route types artifact",
		Text: `{{range .TypeDeclarations}}{{.Text}}
{{end}}
export type {{.Params.ID}} = {
{{- range .ParamsSchema}}
  {{quote .Name}}{{if not .IsRequired}}?{{end}}: {{.Type}};
{{- end}}
};
{{range .PayloadTypes}}
export type {{.ID}} = {{.Text}};
{{end}}
{{- range .ResponseTypes}}
export type {{.ID}} = {{.Text}};
{{end -}}
`,
	},
	"resolved-types": {
		Name:        "resolved-types",
		Description: "Route types artifact with flattened types",
		Text: `{{range .ResolvedTypes}}export type {{.Name}} = {{.Text}};

{{end -}}
`,
	},
	"api-route": {
		Name:        "api-route",
		Description: "Placeholder API route",
		Text: `import { defineRoute } from "@kosmojs/api";

export default defineRoute(({ GET }) => [
  GET(async (ctx) => {
    ctx.body = {{quote .Route.Name}};
  }),
]);
`,
	},
	"react": {
		Name:        "react",
		Description: "Placeholder React page",
		Text: `export default function Page() {
  return <div>{{.Name}}</div>;
}
`,
	},
	"solid": {
		Name:        "solid",
		Description: "Placeholder Solid page",
		Text: `export default function Page() {
  return <div>{{.Name}}</div>;
}
`,
	},
	"vue": {
		Name:        "vue",
		Description: "Placeholder Vue page",
		Text: `<template>
  <div>{{.Name}}</div>
</template>
`,
	},
	"svelte": {
		Name:        "svelte",
		Description: "Placeholder Svelte page",
		Text: `<div>{{.Name}}</div>
`,
	},
	"api-lib": {
		Name:        "api-lib",
		Description: "Per-route API helpers",
		Text: `import type { {{.Route.Params.ID}} } from "./types";

export const name = {{quote .Route.Name}};
export const path = {{quote .Path}};
export const methods = {{json .Route.Methods}} as const;
export const numericParams = {{json .Route.NumericParams}} as const;

export type Params = {{.Route.Params.ID}};
`,
	},
	"api-index": {
		Name:        "api-index",
		Description: "API route table",
		Text: `{{range .Routes}}import {{.ImportName}} from "~/{{$.SourceFolder}}/api/{{.ImportPath}}";
{{end}}
export default [
{{- range .Routes}}
  {
    name: {{quote .Name}},
    path: {{quote .Path}},
    methods: {{json .Methods}},
    {{- if .Meta}}
    meta: {{.Meta}},
    {{- end}}
    handler: {{.ImportName}},
  },
{{- end}}
];
`,
	},
	"fetch-lib": {
		Name:        "fetch-lib",
		Description: "Per-route fetch client",
		Text: `import { fetchFactory } from "@kosmojs/fetch";

import type { {{.Route.Params.ID}} } from "{{.LibImport}}/types";

export default fetchFactory<{{.Route.Params.ID}}>({
  base: {{quote .BaseURL}},
  path: {{quote .Path}},
  methods: {{json .Route.Methods}},
  numericParams: {{json .Route.NumericParams}},
});
`,
	},
	"fetch-index": {
		Name:        "fetch-index",
		Description: "Fetch client table",
		Text: `{{range .Routes}}import {{.ImportName}} from "./fetch/{{.ImportPath}}";
{{end}}
export default {
{{- range .Routes}}
  {{quote .Name}}: {{.ImportName}},
{{- end}}
};
`,
	},
}
