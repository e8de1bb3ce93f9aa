package cache

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Key derives the cache key for a namespaced request payload. The payload is
// reduced to canonical JSON so that deep-equal payloads hash identically
// regardless of map iteration or struct field order, then digested with
// xxhash64. The digest is collision-acceptable for cache lookups; it is not
// a security boundary.
//
// Keys have the shape "<namespace>:<digest>" and are opaque to callers.
func Key(namespace string, payload any) (string, error) {
	canon, err := CanonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	return fmt.Sprintf("%s:%016x", namespace, xxhash.Sum64(canon)), nil
}

// CanonicalJSON encodes v deterministically: the value is marshalled, decoded
// back into plain maps, slices and primitives, and marshalled again.
// encoding/json writes map keys in sorted order, so the second pass is stable
// for any two deep-equal inputs, including a struct versus its equivalent
// map form.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}
