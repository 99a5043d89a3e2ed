package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemorySize bounds the in-process cache when no size is given.
const DefaultMemorySize = 1024

// Memory is an in-process LRU cache with per-entry TTL expiry.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates an in-process cache holding up to size entries that
// expire ttl after insertion. A non-positive size falls back to
// DefaultMemorySize; a zero ttl disables expiry.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = DefaultMemorySize
	}
	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns the cached value for key and whether it was present.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	return m.lru.Get(key)
}

// Put stores value under key.
func (m *Memory) Put(_ context.Context, key string, value []byte) {
	m.lru.Add(key, value)
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}
