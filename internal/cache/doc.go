// Package cache persists the resolved signature of an API route together
// with content hashes of the route file and of every file its types
// reference.
//
// A record is valid only while the route file and all referenced files
// hash to the recorded values. Missing or empty files hash to 0, so a
// deleted dependency always invalidates. Unreadable, malformed or partial
// records are treated as a miss, never as an error: the cache is always
// safe to delete.
//
// Records are stored as indented JSON at
//
//	<appRoot>/lib/<sourceFolder>/api/<importPath>/cache.json
//
// with referenced file paths relative to the app root.
package cache
