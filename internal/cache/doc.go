// Package cache implements the strict-LRU store backing the scaling cache.
//
// The LRU threads a doubly-linked recency list through a map for O(1)
// lookup, promotion and eviction, and keeps atomic hit/miss/eviction
// counters. An optional eviction callback lets the owner keep derived
// accounting (byte estimates) in step with removals. The structure is
// mutex-guarded and safe for concurrent use; it must not be copied after
// creation.
package cache
