package intern

import (
	"reflect"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// tables holds the per-kind singletons. They are created on first use and
// live for the duration of the process.
var tables sync.Map // reflect.Type -> *Table[T]

// tablesMu serializes singleton creation and guards the default wiring, so
// a table's metrics are registered exactly once even when two goroutines
// request the same kind together.
var (
	tablesMu          sync.Mutex
	defaultLogger     *zap.Logger
	defaultRegisterer prometheus.Registerer
)

// SetDefaults supplies the logger and metrics registerer handed to tables
// the registry creates from then on. Tables already created keep their
// original wiring. Both arguments may be nil, which disables the concern.
func SetDefaults(logger *zap.Logger, reg prometheus.Registerer) {
	tablesMu.Lock()
	defer tablesMu.Unlock()
	defaultLogger, defaultRegisterer = logger, reg
}

// TableFor returns the process-wide table for kind T, creating it lazily
// with the registry's default wiring.
func TableFor[T any]() *Table[T] {
	kind := reflect.TypeFor[T]()
	if v, ok := tables.Load(kind); ok {
		return v.(*Table[T])
	}

	tablesMu.Lock()
	defer tablesMu.Unlock()
	if v, ok := tables.Load(kind); ok {
		return v.(*Table[T])
	}
	tbl := NewTable[T](defaultLogger, defaultRegisterer)
	tables.Store(kind, tbl)
	return tbl
}

// New builds a candidate and returns the canonical instance for its
// content. The candidate itself is discarded when an equal canonical is
// already live.
func New[T any](build func() *T) *T {
	obj, _ := Instance(build)
	return obj
}

// Instance is New plus a report of whether the built candidate had to be
// adopted as a new canonical (true) or an existing one was returned
// (false).
func Instance[T any](build func() *T) (*T, bool) {
	return TableFor[T]().Register(build())
}

// InstanceIf interns the built value only when interned is true. It lets a
// single kind produce both canonical and free-standing instances.
func InstanceIf[T any](interned bool, build func() *T) *T {
	if !interned {
		return build()
	}
	return New(build)
}
