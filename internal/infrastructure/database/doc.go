// Package database manages the SQLite connection backing the mock's stores.
//
// The default database lives in process memory (:memory:), so every restart
// begins from an empty, freshly-migrated schema. A filesystem path can be
// configured instead for debugging.
//
// The connection pool is capped at one connection, which doubles as the
// global mutual-exclusion lock across all stores: every lookup and mutation
// serialises on it.
package database
