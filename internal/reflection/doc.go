// Package reflection stores journal reflections in a single JSON document.
//
// A reflection is one journal entry: an author name, free text and the
// identifiers derived from its creation instant. The whole collection is
// persisted as one JSON array, re-read from disk on every operation and
// rewritten in full on every mutation.
//
// # Stores
//
// Two implementations satisfy the Store contract:
//   - FileStore: the backing document on local disk
//   - MemoryStore: an in-process slice with identical semantics
//
// Usage:
//
//	store, err := reflection.NewFileStore(reflection.FileStoreConfig{
//	    Path: filepath.Join("backend", "reflections.json"),
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	r, err := store.Create(ctx, "Ada", "Today I learned...")
//
// # Concurrency
//
// Each store serializes its own load-mutate-save cycles with a mutex, so
// concurrent requests inside one process cannot lose updates. Writers in
// other processes sharing the same document are last-writer-wins.
//
// # Identifiers
//
// IDs default to the creation instant at second precision (YYYYMMDDHHMMSS).
// Two creates within the same second produce the same ID; UUIDIDs avoids
// this when uniqueness matters.
package reflection
