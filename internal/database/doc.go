// Package database records generation history in SQLite.
//
// Only metadata is stored: template, family, status, timings, sizes and
// content digests. Generated artifacts themselves are never persisted.
//
// The database uses WAL mode for improved concurrent read performance
// and includes automatic schema initialization and migrations.
package database
