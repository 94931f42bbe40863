// Package resolver turns route files into resolved routes.
//
// Identity decides which files are routes and derives their identity.
// Factory builds a Resolver per route file; running a resolver yields a
// route.ResolverEntry. API resolvers consult the per-route cache and only
// call the signature extractor on a miss, writing the route's types.ts
// artifact on the way. Page resolvers are derived from the path alone.
//
// Resolvers are re-runnable: the orchestrator keeps the Resolvers map for
// the whole session and re-runs entries when their files change.
package resolver
