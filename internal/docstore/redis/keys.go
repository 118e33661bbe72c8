package redis

import "fmt"

// DefaultPrefix namespaces every key written by the store.  The braces make
// it a Redis Cluster hash tag, so all keys land in one slot.
const DefaultPrefix = "{seats}"

// docKey returns the key of the hash holding one document
func docKey(prefix, collection, id string) string {
	return fmt.Sprintf("%s:doc:%s:%s", prefix, collection, id)
}

// indexKey returns the sorted set that orders a collection by insertion
func indexKey(prefix, collection string) string {
	return fmt.Sprintf("%s:idx:%s", prefix, collection)
}

// seqKey returns the insertion counter of a collection
func seqKey(prefix, collection string) string {
	return fmt.Sprintf("%s:seq:%s", prefix, collection)
}
