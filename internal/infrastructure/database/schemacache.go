package database

import (
	"github.com/bradfitz/gomemcache/memcache"
)

const snapshotTTLSeconds = 300

// SchemaSnapshotCache keeps short-lived external schema snapshots in
// memcached so repeated discovery calls don't hammer source databases.
type SchemaSnapshotCache struct {
	mc *memcache.Client
}

func NewSchemaSnapshotCache(mc *memcache.Client) *SchemaSnapshotCache {
	return &SchemaSnapshotCache{mc: mc}
}

func (c *SchemaSnapshotCache) GetSnapshot(key string) ([]byte, bool) {
	if c == nil || c.mc == nil {
		return nil, false
	}
	item, err := c.mc.Get(key)
	if err != nil {
		// A broken cache reads as a miss.
		return nil, false
	}
	return item.Value, true
}

func (c *SchemaSnapshotCache) SetSnapshot(key string, value []byte) {
	if c == nil || c.mc == nil {
		return
	}
	_ = c.mc.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: snapshotTTLSeconds,
	})
}
