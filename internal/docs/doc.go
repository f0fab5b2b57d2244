// Package docs selects Markdown and MDX files from a working copy and mirrors them
// into the output tree.
//
// A task whose source is a file is copied to the destination as-is when its
// extension matches. A directory source replaces the destination directory and
// every matching file below it lands at the same relative position. With an
// include list only the named direct children are considered; names that do
// not exist are skipped.
package docs
