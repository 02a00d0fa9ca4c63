// Package storage provides the durable key/value store behind the session
// layer and the persistence manager. It plays the role localStorage plays
// in the web client, backed by SQLite on disk.
package storage

import "errors"

// ErrMiss is returned by Get when the key has no stored value.
var ErrMiss = errors.New("storage: key not found")

// KV is the durable key/value surface. Reads and writes are synchronous;
// implementations must be safe for concurrent use.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
}
