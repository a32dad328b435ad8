package intern

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Key is a derived content key. Values of one kind receive equal keys
// whenever their content is equal; unequal content may still share a key,
// which the table resolves with collision buckets rather than treating as a
// content tie.
type Key uint64

// Decomposable is implemented by values that expose an ordered canonical
// decomposition of their content. Key derivation recurses into each
// sub-value and finishes with the value's runtime type tag, so two kinds
// holding the same elements never share a key. Sub-values are embedded into
// the key by value; only the top-level candidate is tracked weakly.
type Decomposable interface {
	Decompose() []any
}

// Equatable is implemented by values that define their own content
// equality. It overrides structural comparison of decompositions, which
// lets a kind compare more fields than its decomposition hashes.
type Equatable interface {
	Equals(i any) bool
}

// DeriveKey computes the content key of v. It is a pure function: equal
// content always yields an equal key regardless of call order or history.
//
// Values that neither decompose nor match a built-in composite are hashed
// from their printed representation. That renders pointer-typed fields as
// addresses, so a kind holding references inside an otherwise opaque struct
// must implement Decomposable (or Equatable) to expose its content rather
// than rely on the fallback.
func DeriveKey(v any) Key {
	d := xxhash.New()
	writeContent(d, v)
	return Key(d.Sum64())
}

// writeContent feeds the canonical form of v into the digest. Pointers are
// transparent. Composite values (decomposable kinds, sequences, mappings)
// recurse into their elements and close with a type tag so that
// structurally equal but differently typed composites never collide.
func writeContent(d *xxhash.Digest, v any) {
	if v == nil {
		d.WriteString("<nil>")
		return
	}
	if dec, ok := v.(Decomposable); ok {
		for _, sub := range dec.Decompose() {
			writeContent(d, sub)
		}
		d.WriteString(typeTag(v))
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			d.WriteString("<nil>")
			return
		}
		writeContent(d, rv.Elem().Interface())

	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			writeContent(d, rv.Index(i).Interface())
		}
		d.WriteString(typeTag(v))

	case reflect.Map:
		// Entry digests are combined with xor so the resulting key does not
		// depend on map iteration order.
		var combined uint64
		for iter := rv.MapRange(); iter.Next(); {
			sub := xxhash.New()
			writeContent(sub, iter.Key().Interface())
			writeContent(sub, iter.Value().Interface())
			combined ^= sub.Sum64()
		}
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], combined)
		d.Write(buf[:])
		d.WriteString(typeTag(v))

	case reflect.Float32, reflect.Float64:
		// Signed zeros are content-equal, so -0 is folded into 0 before
		// hashing; the printed form would split them into distinct keys.
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(rv.Float()+0))
		d.Write(buf[:])
		d.WriteString(typeTag(v))

	default:
		fmt.Fprintf(d, "%v", v)
		d.WriteString(typeTag(v))
	}
}

// contentEqual reports whether a and b carry equal content. An Equals
// implementation wins; otherwise decomposable values compare structurally;
// plain values fall back to deep equality. A type or shape mismatch is
// treated as simple inequality, never as an error.
func contentEqual(a, b any) bool {
	if eq, ok := a.(Equatable); ok {
		return eq.Equals(b)
	}

	da, aok := a.(Decomposable)
	db, bok := b.(Decomposable)
	if aok != bok {
		return false
	}
	if !aok {
		return reflect.DeepEqual(a, b)
	}

	if typeTag(a) != typeTag(b) {
		return false
	}
	subA, subB := da.Decompose(), db.Decompose()
	if len(subA) != len(subB) {
		return false
	}
	for i := range subA {
		if !contentEqual(subA[i], subB[i]) {
			return false
		}
	}
	return true
}

func typeTag(v any) string {
	return reflect.TypeOf(v).String()
}
