// Package assemble turns manuscript sources into converter input.
//
// Single-document mode merges the shared front matter with one source file,
// optionally prepends a bibliography hint, and resolves inclusion directives.
// Collection ("garden") mode numbers figures and tables across every member
// listed in an index file, converts each member on its own with its offsets
// and the global label map, and rewrites the index into links to the results.
package assemble
