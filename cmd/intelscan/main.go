// Package main provides the entry point for the intelscan CLI.
//
// intelscan turns a research goal or a list of URLs into a cited
// intelligence report: it plans which pages to read, fetches them through
// a scrape service, and has a language model synthesize a report whose
// source markers are resolved to links.
//
// Usage:
//
//	intelscan analyze "What is the state of the Apache Kafka project?"
//	intelscan scrape https://example.com/a https://example.com/b --goal "compare a and b"
//	intelscan serve
//
// See --help for all available options.
package main

// main is the entry point for intelscan.
func main() {
	Execute()
}
