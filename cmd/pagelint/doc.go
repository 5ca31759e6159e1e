// Command pagelint checks page documents before they reach the renderer.
//
// Usage:
//
//	pagelint <command> <file>
//
// Commands:
//
//	validate  Print the parts of each page the renderer will skip or
//	          reinterpret. Exits 1 when any page has warnings.
//
//	assets    List every image reference each page touches, in paint
//	          order, with its source kind (http, data, blob, file).
//
//	status    Report how many thumbnails the SQLite store holds. The file
//	          argument is the database path; DATABASE_PATH is used when it
//	          is omitted.
//
// Output is colored when stdout is a terminal.
package main
