package unit

import "hash/fnv"

// depHasher folds a unit's direct dependencies' (dep_hash, description)
// pairs into the unit's own dep_hash, order-independent so that dependency
// enumeration order never affects the result (spec.md §9, "dep-hash
// disambiguation"). Grounded on the teacher's fnv-128a-based Ctx.Digest
// (internal/build/build.go), generalized from "hash of the whole proto" to
// "hash of dependency identities".
type depHasher struct {
	acc uint64
}

func newDepHasher() *depHasher { return &depHasher{} }

func (h *depHasher) add(depHash uint64, desc string) {
	f := fnv.New64a()
	f.Write(uint64Bytes(depHash))
	f.Write([]byte(desc))
	// XOR-combine so the contribution of each dependency is
	// order-independent: dependency declaration order in the manifest must
	// not change the computed hash.
	h.acc ^= f.Sum64()
}

func (h *depHasher) sum() uint64 {
	if h.acc == 0 {
		// Leaf units (no deps) still need a stable, non-zero identity
		// component distinguishing them from "not yet hashed".
		return fnvEmpty
	}
	return h.acc
}

var fnvEmpty = func() uint64 {
	f := fnv.New64a()
	f.Write([]byte("ferrocore:leaf"))
	return f.Sum64()
}()

func uint64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}
