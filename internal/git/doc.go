// Package git keeps one local working copy per configured source up to date.
//
// A missing working copy is cloned shallowly (depth 1 by default); an existing one
// is fetched and hard-reset to the remote branch, so local changes never survive
// an update. Failures are returned as *FetchError so the caller can report the
// source and move on to the next one.
package git
