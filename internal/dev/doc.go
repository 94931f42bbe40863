// Package dev runs a development session.
//
// A session starts a worker (see package worker) and a small status
// server next to it. The worker owns the watcher and the generator
// pipeline; the host replays its spinners on the terminal and forwards
// every protocol message to the status server.
//
// # Status server
//
// The server listens on dev.host:dev.port from kosmo.json:
//
//	GET /ready    200 {"ready":true} once the initial pass finished, 503 before
//	GET /metrics  Prometheus metrics, only with dev.metrics enabled
//	GET /events   WebSocket stream of worker messages
//
// /events sends the same JSON the worker writes on its protocol stream:
//
//	{"spinner":{"id":"…","startText":"Updating 2 Routes","method":"succeed"}}
//	{"error":{"name":"E222","message":"…"}}
//	{"ready":true}
//
// # Worker exit
//
// The worker is never restarted. If it exits while the session is
// running, Run stops the status server and returns an E232 error.
package dev
