// Package cache stores native engine renders so that identical requests skip
// the engine process. It pairs an in-memory LRU with a zstd-compressed disk
// store that survives restarts.
package cache
