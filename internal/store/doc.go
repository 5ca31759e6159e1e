// Package store persists finished thumbnails in SQLite, keyed by page id.
//
// It is the boundary between the renderer and whatever serves thumbnails
// later: a batch run writes every page's latest thumbnail in one
// transaction, readers fetch them by page id. The database runs in WAL mode
// and the schema is created on open.
package store
