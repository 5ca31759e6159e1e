// Package watch re-renders page documents as the editor saves them.
//
// A Watcher follows a directory tree with fsnotify and reports *.json page
// documents once they stop changing for the debounce interval, so an editor
// that writes a file in several chunks triggers one regeneration. Handlers
// run one at a time on the goroutine that called Run.
package watch
