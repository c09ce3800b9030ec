// Package manifest writes an optional manifest.json next to the downloaded
// images, listing the pages visited and what was saved or failed.
//
// The file is replaced atomically, so a reader never sees a partial manifest.
package manifest
