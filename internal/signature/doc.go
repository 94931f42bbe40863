// Package signature extracts the type signature of API route files.
//
// An API route default-exports a defineRoute call:
//
//	export default defineRoute<[TRefine<number, { minimum: 1 }>]>(
//	  ({ GET, PUT }) => [
//	    GET<UserQuery, UserResponse>(async (ctx) => { ... }),
//	    PUT<
//	      /** @skip-validation */
//	      UpdateUserPayload,
//	      UserResponse
//	    >(async (ctx) => { ... }),
//	  ],
//	);
//
// The optional tuple argument refines path parameters in order. Each
// method call takes the payload type and the response type. Top-level
// type aliases, interfaces, enums, imports and re-exports are collected as
// type declarations so a standalone types file can be rendered for the
// route.
//
// Scanner is a lightweight source scanner for this convention: it masks
// comments and string literals, then walks balanced brackets. It does not
// type-check. Relative imports are followed transitively to compute the
// files a route depends on.
package signature
