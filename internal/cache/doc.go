// Package cache defines the disk-backed blob store that keeps downloaded jars
// and generated reports under a single storage root. Keys are relative paths
// resolved against the root; anything that escapes it is rejected before the
// filesystem is touched. Writes go through a colocated temp file and an atomic
// rename, so readers only ever see complete blobs. Per-key reader/writer
// locking is striped over a fixed number of mutexes (see KeyedLocks), which
// keeps lock memory bounded no matter how many keys the store holds.
package cache
