// Package route defines the route model shared by the resolver, the
// orchestrator and every generator.
//
// Routes are derived from a conventions-based file tree:
//
//	src/
//	├── api/
//	│   ├── index/index.ts                 → "" (root)
//	│   ├── books/index.ts                 → /books
//	│   ├── books/[category]/index.ts      → /books/:category
//	│   ├── files/[[folder]]/index.ts      → /files{/:folder}
//	│   └── articles/[...path]/index.ts    → /articles{/*path}
//	└── pages/
//	    └── users/[id]/index.tsx           → /users/:id
//
// # Path Tokens
//
// Every directory segment of a route file becomes a PathToken. Segments are
// classified as static, required ([name]), optional ([[name]]) or rest
// ([...name]) parameters. A trailing extension is split off the segment
// base, so "[id].json" yields a required "id" parameter with ext ".json".
//
// # Snapshots
//
// Generators receive a Snapshot: a deep value copy of the resolved routes.
// A generator may modify its snapshot freely; the orchestrator's own state
// is never shared.
package route
