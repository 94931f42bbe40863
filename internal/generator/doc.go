// Package generator defines pluggable code generators and the order they
// run in.
//
// A generator is configured in kosmo.json by module name:
//
//	"generators": [
//	    { "module": "fetch", "config": { "baseURL": "/api" } },
//	    { "module": "openapi" }
//	]
//
// The Registry turns each entry into a Constructor. Constructors carry the
// generator's name, its kind and options; their Factory is only called
// once per session, in the "Initializing Generators" phase, and returns
// the Generator whose WatchHandler runs after every resolve pass.
//
// # Ordering
//
// Order composes built-in and user generators into one pipeline:
//
//  1. stub
//  2. the api generator (a user generator of kind "api" replaces the built-in)
//  3. the fetch generator (same rule for kind "fetch")
//  4. every other user generator, in registration order (a user stub does
//     not replace the built-in one)
//  5. the ssr generator, if configured
package generator
