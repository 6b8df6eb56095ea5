// Package kv is the string-only key/value layer that every persisted record
// goes through. Values are opaque strings; writes are last-write-wins and a
// store may refuse a write once its byte budget is exhausted.
package kv

import "errors"

// DefaultQuota is the nominal 5 MiB budget used when no quota is given.
const DefaultQuota = 5 * 1024 * 1024

// ErrQuotaExceeded is returned by Set when the write would push the store
// past its byte budget.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Store is a synchronous string key/value store.
type Store interface {
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Get returns the value for key. ok is false when the key is unset.
	Get(key string) (value string, ok bool, err error)
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Keys lists every key currently stored, sorted.
	Keys() ([]string, error)
	Close() error
}

type options struct {
	quota int
}

// Option configures a Store implementation.
type Option func(*options)

// WithQuota sets the byte budget. Zero or a negative value disables the check.
func WithQuota(bytes int) Option {
	return func(o *options) { o.quota = bytes }
}

func buildOptions(opts []Option) options {
	o := options{quota: DefaultQuota}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// entrySize is the accounting unit used for quotas: raw key plus value length.
func entrySize(key, value string) int {
	return len(key) + len(value)
}
