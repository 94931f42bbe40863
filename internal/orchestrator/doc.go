// Package orchestrator drives the resolve/generate pipeline.
//
// An Orchestrator owns the resolver map and the resolved routes. Start
// discovers every route file, resolves it, initializes the generators and
// runs them once. Handle then applies one filesystem event at a time:
//
//	create  resolve the new route and add it
//	update  re-resolve the changed route and every API route whose
//	        referenced files include the changed file
//	delete  nothing is swept; generated files of the route stay in place
//
// After each event every generator runs, in order, with a fresh Snapshot.
// A failing route or generator is reported through its spinner and the
// rest keep running. Run wraps Start and Handle into a loop over an event
// channel for watch sessions.
//
// All methods must be called from one goroutine.
package orchestrator
