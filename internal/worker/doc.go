// Package worker runs the watch session behind a process boundary.
//
// The host only ever sends Data: plain options plus [module, config]
// pairs for generators and formatters. The worker rebuilds them through a
// Loader, runs the orchestrator and the file watcher for the lifetime of
// the session and reports back with JSON lines:
//
//	{"spinner":{"id":"…","startText":"Resolving Routes","method":"append","text":"[ 1 of 3 ] users"}}
//	{"error":{"name":"E222","message":"…","stack":"…"}}
//	{"ready":true}
//
// ready is sent once, after the initial resolve and generate pass.
//
// Two transports speak the same protocol. Process re-executes the kosmo
// binary as "kosmo worker" with Data on stdin and messages on stdout.
// Goroutine runs Serve in the host process over pipes. The Host replays
// spinner messages onto its own reporter, keyed by spinner id, so tasks
// that overlap render independently. A worker that exits is never
// restarted.
package worker
