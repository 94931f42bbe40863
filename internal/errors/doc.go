// Package errors provides structured, actionable error messages for kosmo.
//
// Every error carries a code that maps to a registered template with a
// short message, a longer explanation and a documentation link. Call sites
// add the specifics:
//
//	err := errors.New("E201").
//	    WithLocation("src/api/users/[id]/index.ts", 3, 1).
//	    WithDetail(`defineRoute call not found`).
//	    Wrap(cause)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Route signature extraction failed
//	//
//	//   src/api/users/[id]/index.ts:3:1
//	//
//	//   defineRoute call not found
//	//
//	//   Learn more: https://kosmojs.dev/docs/errors/E201
//
// # Error Categories
//
//   - config: kosmo.json loading and validation
//   - cli: command line usage
//   - resolve: route discovery and signature extraction
//   - cache: per-route cache records
//   - generator: generator construction and watch handlers
//   - worker: the boundary between the dev host and its worker
//   - watcher: filesystem watching
package errors
