package cache

import "testing"

func TestKeyDeterministicAcrossMapOrder(t *testing.T) {
	// Maps with identical content hash identically regardless of how they
	// were built; Go randomizes iteration order, so run a few times.
	p1 := map[string]any{"user": "u1", "after": 1700000000, "per_page": 50}
	p2 := map[string]any{"per_page": 50, "after": 1700000000, "user": "u1"}

	for i := 0; i < 20; i++ {
		k1, err := Key("activities", p1)
		if err != nil {
			t.Fatalf("Key: %v", err)
		}
		k2, err := Key("activities", p2)
		if err != nil {
			t.Fatalf("Key: %v", err)
		}
		if k1 != k2 {
			t.Fatalf("equal payloads produced different keys: %s != %s", k1, k2)
		}
	}
}

func TestKeyStructEqualsMapForm(t *testing.T) {
	type payload struct {
		User  string `json:"user"`
		After int64  `json:"after"`
	}
	k1, err := Key("activities", payload{User: "u1", After: 1700000000})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	k2, err := Key("activities", map[string]any{"after": 1700000000, "user": "u1"})
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	if k1 != k2 {
		t.Errorf("struct and equivalent map hashed differently: %s != %s", k1, k2)
	}
}

func TestKeyNamespacePartitioning(t *testing.T) {
	p := map[string]any{"user": "u1"}
	ka, _ := Key("activities", p)
	kb, _ := Key("recommendations", p)
	if ka == kb {
		t.Errorf("same key across namespaces: %s", ka)
	}
}

func TestKeyDifferentPayloads(t *testing.T) {
	k1, _ := Key("activities", map[string]any{"user": "u1", "after": 1700000000})
	k2, _ := Key("activities", map[string]any{"user": "u1", "after": 1700000001})
	if k1 == k2 {
		t.Errorf("distinct payloads collided: %s", k1)
	}
}

func TestKeyUnserializablePayload(t *testing.T) {
	if _, err := Key("activities", func() {}); err == nil {
		t.Error("expected error for unserializable payload")
	}
}

func TestCanonicalJSONNested(t *testing.T) {
	a := map[string]any{"outer": map[string]any{"b": 2, "a": 1}, "list": []any{1, "x"}}
	b := map[string]any{"list": []any{1, "x"}, "outer": map[string]any{"a": 1, "b": 2}}

	ca, err := CanonicalJSON(a)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	cb, err := CanonicalJSON(b)
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}
	if string(ca) != string(cb) {
		t.Errorf("nested canonical forms differ: %s != %s", ca, cb)
	}
}
