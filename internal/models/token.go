package models

import "time"

// RevocationPrefix namespaces revoked token entries in the key-value store.
const RevocationPrefix = "blacklist:"

// RevocationEntry describes a revoked token key and how long it must be remembered.
type RevocationEntry struct {
	Key string
	TTL time.Duration
}
