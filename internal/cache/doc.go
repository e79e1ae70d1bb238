// Package cache defines the disk-backed store responsible for translating
// compiled asset builds into CachePath/<mount>/<path> files. The store exposes
// read/write primitives with safe semantics (temp file + rename) and surfaces
// file info (size, modtime) for higher layers to implement staleness checks.
// The pipeline environment depends on this package to persist and stream
// compiled output without duplicating filesystem logic.
package cache
