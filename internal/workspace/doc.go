// Package workspace manages the scratch directory a build writes its merged
// input and generated headers into before handing them to the converter.
//
// An ephemeral workspace is a fresh directory removed by Cleanup. A persistent
// workspace lives at a fixed path and survives Cleanup so intermediate files
// can be inspected after a failed build.
package workspace
