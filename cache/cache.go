// Package cache provides the keyed byte cache used to deduplicate model
// invocations and retrieval calls. Implementations are best-effort: a failed
// read is reported as a miss and a failed write is dropped, so the
// orchestration loop never depends on cache availability.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Operation kinds namespacing cache keys. Model invocations and retrieval
// calls never collide even for identical payloads.
const (
	OperationLLM       = "llm"
	OperationRetriever = "retriever"
)

// Cache stores serialized operation results keyed by content hash.
type Cache interface {
	// Get returns the cached value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Put stores value under key. Entry lifetime is governed by the TTL the
	// cache was constructed with.
	Put(ctx context.Context, key string, value []byte)
}

// Key derives the deterministic cache key for an operation payload. The
// payload is canonicalized through JSON (struct fields keep declaration
// order, map keys are sorted) and hashed together with the operation kind, so
// two semantically identical requests always map to the same key.
func Key(operation string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal cache payload: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(operation))
	h.Write([]byte{':'})
	h.Write(data)
	return fmt.Sprintf("%s:%x", operation, h.Sum(nil)), nil
}
