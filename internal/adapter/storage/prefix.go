package storage

import (
	"path"
	"strings"
)

// keyspace maps archive names to object keys under an optional destination
// prefix. Listing strips the prefix again so names round-trip.
type keyspace struct {
	prefix string
}

func newKeyspace(destination string) keyspace {
	return keyspace{prefix: strings.Trim(destination, "/")}
}

func (k keyspace) full(name string) string {
	if k.prefix == "" {
		return name
	}
	return path.Join(k.prefix, name)
}

// listPrefix is the prefix used to scope list calls.
func (k keyspace) listPrefix() string {
	if k.prefix == "" {
		return ""
	}
	return k.prefix + "/"
}

func (k keyspace) strip(key string) string {
	if k.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, k.listPrefix())
}
