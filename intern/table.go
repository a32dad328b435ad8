package intern

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"weak"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ErrMutationOnCanonical reports an attempt to modify a value that is
// currently registered as canonical. It is returned by AssertMutable and
// never raised by the engine itself.
var ErrMutationOnCanonical = errors.New("mutation on canonical value")

// Table deduplicates live values of a single kind. It maps derived content
// keys to weak handles on the canonical instances and never holds an owning
// reference: a value's liveness is controlled solely by its external
// owners. A bucket usually holds exactly one handle; multiple handles mean
// distinct contents happened to share a key.
//
// All operations on one Table are serialized by a single mutex and perform
// no blocking work while holding it.
type Table[T any] struct {
	id     string
	logger *zap.Logger

	mu    sync.Mutex
	slots map[Key][]weak.Pointer[T]

	registered uint64
	deduped    uint64
	collisions uint64
	removed    uint64
}

// tableEntry identifies one registered handle for the removal path. The
// weak pointer stays comparable after its referent has been reclaimed, so
// it doubles as the entry's stable identity token.
type tableEntry[T any] struct {
	key Key
	ref weak.Pointer[T]
}

// NewTable returns an empty table for values of kind T. A nil logger
// disables logging; a nil registerer disables metrics.
func NewTable[T any](logger *zap.Logger, reg prometheus.Registerer) *Table[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Table[T]{
		id:     uuid.New().String(),
		logger: logger,
		slots:  make(map[Key][]weak.Pointer[T]),
	}
	if reg != nil {
		registerMetrics(reg, reflect.TypeFor[T]().String(), t)
	}
	return t
}

// Register returns the canonical instance for candidate's content.
//
// If a live entry with equal content exists, it is returned with false and
// the candidate is abandoned without side effects. Otherwise the candidate
// itself becomes canonical and is returned with true; a runtime cleanup is
// armed so its table entry is dropped exactly once when the last owning
// reference is released. An entry whose referent is already gone but whose
// cleanup has not run yet is treated as vacant.
func (t *Table[T]) Register(candidate *T) (*T, bool) {
	key := DeriveKey(candidate)

	t.mu.Lock()
	bucket := t.slots[key]
	for _, ref := range bucket {
		obj := ref.Value()
		if obj == nil {
			continue
		}
		if contentEqual(obj, candidate) {
			t.deduped++
			t.mu.Unlock()
			t.logger.Debug("existing canonical found, candidate discarded",
				zap.String("table_id", t.id),
				zap.Uint64("key", uint64(key)),
			)
			return obj, false
		}
	}

	live := bucket[:0]
	for _, ref := range bucket {
		if ref.Value() != nil {
			live = append(live, ref)
		}
	}
	if len(live) > 0 {
		// Content-unequal cohabitants of one key are a hash artifact, not a
		// content tie. Both stay registered.
		t.collisions++
		t.logger.Debug("key collision, registering alongside",
			zap.String("table_id", t.id),
			zap.Uint64("key", uint64(key)),
			zap.Int("bucket_size", len(live)+1),
		)
	}
	ref := weak.Make(candidate)
	t.slots[key] = append(live, ref)
	t.registered++
	t.mu.Unlock()

	t.logger.Debug("candidate adopted as canonical",
		zap.String("table_id", t.id),
		zap.Uint64("key", uint64(key)),
	)
	runtime.AddCleanup(candidate, t.drop, tableEntry[T]{key: key, ref: ref})
	return candidate, true
}

// Unregister removes obj's table entry, if any. It is an idempotent no-op
// for objects that never joined the table, such as candidates that lost a
// Register race yet still run their teardown. The runtime cleanup armed by
// Register makes this call automatically; calling it manually beforehand is
// safe.
func (t *Table[T]) Unregister(obj *T) {
	t.drop(tableEntry[T]{key: DeriveKey(obj), ref: weak.Make(obj)})
}

// IsCanonical reports whether obj itself is currently registered as the
// canonical instance for its content. A free-standing copy of a canonical
// value reports false.
func (t *Table[T]) IsCanonical(obj *T) bool {
	key := DeriveKey(obj)
	ref := weak.Make(obj)

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range t.slots[key] {
		if r == ref {
			return true
		}
	}
	return false
}

// AssertMutable reports ErrMutationOnCanonical when obj is registered as
// canonical. Callers gate state-changing operations with it, since
// canonical instances are shared and must never be mutated.
func (t *Table[T]) AssertMutable(obj *T) error {
	if t.IsCanonical(obj) {
		return fmt.Errorf("%w: %T", ErrMutationOnCanonical, obj)
	}
	return nil
}

// Len reports the number of handles currently in the table, dead but not
// yet pruned handles included.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lenLocked()
}

// Stats returns a point-in-time snapshot of the table's counters.
func (t *Table[T]) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		Registered: t.registered,
		Deduped:    t.deduped,
		Collisions: t.collisions,
		Removed:    t.removed,
		Live:       t.lenLocked(),
	}
}

func (t *Table[T]) lenLocked() int {
	n := 0
	for _, bucket := range t.slots {
		n += len(bucket)
	}
	return n
}

// drop removes the entry identified by e. The bucket is erased the instant
// its last handle goes. Run by the runtime once e's referent becomes
// unreachable, or directly by Unregister; an entry that is already gone is
// left alone, which makes the two paths safe to race.
func (t *Table[T]) drop(e tableEntry[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	bucket := t.slots[e.key]
	for i, ref := range bucket {
		if ref != e.ref {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(t.slots, e.key)
		} else {
			t.slots[e.key] = bucket
		}
		t.removed++
		return
	}
}
