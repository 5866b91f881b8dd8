// Package storage persists events and recipient tokens in a SQLite database.
//
// Events are append-only: the store only ever inserts them, in atomic batches,
// and serves equality and range queries over them. The schema is created and
// upgraded with goose migrations embedded in the binary.
package storage
