// Package convert hands assembled Markdown to the external conversion step.
//
// Converter is the boundary: the assembly code never shells out itself. Pandoc
// invokes the pandoc binary; Passthrough returns its input and backs tests and
// dry runs.
package convert
