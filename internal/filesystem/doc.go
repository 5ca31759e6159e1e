/*
Package filesystem wraps the file reads the renderer makes (page documents
and local image assets) with retries for NFS stale file handle errors
(ESTALE), which show up when a document directory lives on a network mount
and the server replaces a file underneath an open handle.

Only ESTALE is retried. Every other error, including a missing file,
returns immediately. Backoff doubles from InitialBackoff up to MaxBackoff.

	data, err := filesystem.ReadFile(path, filesystem.DefaultRetryConfig())
*/
package filesystem
