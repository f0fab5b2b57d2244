// Package workspace manages the persistent directory holding one working copy per
// configured source (source/<name>/ by default) and the full reset of the output root.
//
// Clones survive between runs so that later runs update in place instead of
// cloning again; the output root is always rebuilt from scratch.
package workspace
