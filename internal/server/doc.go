// Package server exposes the threat engine and scan history over HTTP.
//
// Routes are served by chi. Every response is JSON and errors use the
// {"detail": "..."} shape. The server works without a Store: analysis is
// always available, stats and history fall back to empty values, and the
// remaining user endpoints answer 503.
package server
