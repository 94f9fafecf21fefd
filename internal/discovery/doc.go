// Package discovery locates the project manifests a migration operates on.
// It walks a directory tree, skips build output and hidden directories, and
// returns every file matching the manifest pattern in a stable order.
package discovery
