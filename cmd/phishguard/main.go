// Package main provides the entry point for the PhishGuard CLI.
//
// PhishGuard scores URLs for phishing risk with a fixed set of heuristics,
// keeps a scan history in a local SQLite database and serves the same
// analysis over an HTTP API.
//
// Usage:
//
//	phishguard scan <url>...
//	phishguard scan --list <file>
//	phishguard serve
//
// See --help for all available options.
package main

func main() {
	Execute()
}
