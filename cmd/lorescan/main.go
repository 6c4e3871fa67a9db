// Package main provides the entry point for the lorescan CLI.
//
// Lorescan is an entity recognition and matching engine for fiction
// series. It extracts named entities (characters, locations,
// organizations) from manuscript chapters and tracks where they appear
// across the books of a project.
//
// Usage:
//
//	lorescan import -P <project> <manuscript-title> <chapter-files...>
//	lorescan extract -P <project> <manuscript-title>
//	lorescan detect -P <project> --all
//
// See --help for all available options.
package main

// main is the entry point for lorescan.
func main() {
	Execute()
}
