// Package templates renders generated source files.
//
// Templates are Go text/template sources. Render executes one against a
// data value; RenderToFile also writes the result, running it through the
// configured formatters first and leaving user-edited files alone.
//
// # Overwrite Policy
//
// By default RenderToFile only replaces a file that is missing or blank:
//
//	templates.RenderToFile(ctx, file, tpl, data)
//
// Generated library files that are owned by the pipeline are always
// replaced:
//
//	templates.RenderToFile(ctx, file, tpl, data, templates.WithOverwrite(templates.Always))
//
// # Built-in Templates
//
//   - types: the per-route types.ts artifact
//   - resolved-types: types.ts with every type flattened
//   - api-route: placeholder for a blank API route file
//   - api-lib, api-index: per-route API helpers and the API route table
//   - fetch-lib, fetch-index: per-route fetch clients and their table
//   - react, solid, vue, svelte: placeholder page components
//
// # Formatters
//
// Formatters are loaded by module name from kosmo.json:
//
//	"formatters": [
//	    { "module": "trim" },
//	    { "module": "exec", "config": { "command": ["npx", "prettier", "--stdin-filepath", "{file}"] } }
//	]
package templates
