// Package persistence provides the key-value slot the tracker store is saved into.
// The whole store lives as a single serialized blob under one fixed key, so a slot
// only needs get and put by key. SQLite (WAL mode) is used for on-disk storage and
// a map-backed slot serves tests and ephemeral runs.
package persistence
