package intern_test

import (
	"runtime"
	"testing"

	"github.com/on-the-ground/intern_ive_go/intern"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// label and severity are registry-owned kinds so these tests do not share
// process-wide tables with the table tests.
type label struct {
	name string
}

func (l *label) Decompose() []any { return []any{l.name} }

type severity struct {
	name string
}

func (s *severity) Decompose() []any { return []any{s.name} }

// priority is only interned by the defaults test below, so its singleton is
// guaranteed to be created after SetDefaults ran.
type priority struct {
	name string
}

func (p *priority) Decompose() []any { return []any{p.name} }

func TestTableFor_OneTablePerKind(t *testing.T) {
	assert.Same(t, intern.TableFor[label](), intern.TableFor[label]())
}

func TestTableFor_KindsAreIsolated(t *testing.T) {
	a := intern.New(func() *label { return &label{name: "urgent"} })
	b := intern.New(func() *severity { return &severity{name: "urgent"} })

	assert.True(t, intern.TableFor[label]().IsCanonical(a))
	assert.True(t, intern.TableFor[severity]().IsCanonical(b))

	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestInstance_ReportsAdoption(t *testing.T) {
	a, fresh := intern.Instance(func() *label { return &label{name: "todo"} })
	require.True(t, fresh)

	b, fresh := intern.Instance(func() *label { return &label{name: "todo"} })
	assert.False(t, fresh)
	assert.Same(t, a, b)

	runtime.KeepAlive(a)
}

func TestNew_ReturnsCanonical(t *testing.T) {
	a := intern.New(func() *label { return &label{name: "done"} })
	b := intern.New(func() *label { return &label{name: "done"} })

	assert.Same(t, a, b)
	runtime.KeepAlive(a)
}

func TestSetDefaults_WiresRegistryCreatedTables(t *testing.T) {
	reg := prometheus.NewRegistry()
	intern.SetDefaults(zaptest.NewLogger(t), reg)
	t.Cleanup(func() { intern.SetDefaults(nil, nil) })

	obj := intern.New(func() *priority { return &priority{name: "high"} })
	require.True(t, intern.TableFor[priority]().IsCanonical(obj))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "intern_registrations_total")
	assert.Contains(t, names, "intern_live_entries")

	runtime.KeepAlive(obj)
}

func TestInstanceIf_OptionalInterning(t *testing.T) {
	canonical := intern.InstanceIf(true, func() *label { return &label{name: "wip"} })
	require.True(t, intern.TableFor[label]().IsCanonical(canonical))

	loose := intern.InstanceIf(false, func() *label { return &label{name: "wip"} })
	assert.NotSame(t, canonical, loose)
	assert.False(t, intern.TableFor[label]().IsCanonical(loose))

	// The loose instance may be mutated, the canonical one may not.
	assert.NoError(t, intern.TableFor[label]().AssertMutable(loose))
	assert.ErrorIs(t,
		intern.TableFor[label]().AssertMutable(canonical),
		intern.ErrMutationOnCanonical,
	)

	runtime.KeepAlive(canonical)
}
