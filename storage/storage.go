// Package storage defines the pluggable byte-storage collaborator spec.md
// §1/§6.4 calls "external... not specified here": something that round
// trips the opaque encrypted history blob. Concrete backends live in
// storage/file, storage/sqlite, storage/mysql, storage/postgres and
// storage/mssql.
package storage

// Backend is the storage collaborator's contract (spec §6.4, §11.1). The
// blob is opaque to every backend; only the cryptoblob package interprets
// its plaintext.
type Backend interface {
	// Load returns the last saved blob, or (nil, nil) if nothing has been
	// saved yet.
	Load() ([]byte, error)
	// Save performs a full rewrite of the blob (spec §5 "save is a full
	// rewrite, not an update-in-place").
	Save(blob []byte) error
	Close() error
}
