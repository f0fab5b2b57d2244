// Package daemon reruns the sync pipeline on a fixed interval and picks up
// configuration changes between runs.
package daemon
