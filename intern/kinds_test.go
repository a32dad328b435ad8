package intern_test

import (
	"time"

	"github.com/on-the-ground/intern_ive_go/intern"
	"github.com/rickb777/date/v2"
)

// color is the classic interning example: an immutable rgb triple.
type color struct {
	r, g, b float64
}

var _ intern.Decomposable = &color{}

func (c *color) Decompose() []any { return []any{c.r, c.g, c.b} }

func colorOf(r, g, b float64) func() *color {
	return func() *color { return &color{r: r, g: g, b: b} }
}

// shade has the same decomposition shape as color. The two kinds must never
// intern together.
type shade struct {
	r, g, b float64
}

func (s *shade) Decompose() []any { return []any{s.r, s.g, s.b} }

// booking is a composite with an opaque calendar-date leaf.
type booking struct {
	from   date.Date
	nights int
}

func (b *booking) Decompose() []any { return []any{b.from, b.nights} }

func bookingOf(y int, m time.Month, d, nights int) *booking {
	return &booking{from: date.New(y, m, d), nights: nights}
}

// palette nests a decomposable sub-value inside another.
type palette struct {
	name    string
	primary *color
}

func (p *palette) Decompose() []any { return []any{p.name, p.primary} }

// collider engineers a key collision: its decomposition omits the salt its
// equality compares, so equal names share a key while the values remain
// content-unequal.
type collider struct {
	name string
	salt int
}

var _ intern.Equatable = &collider{}

func (c *collider) Decompose() []any { return []any{c.name} }

func (c *collider) Equals(i any) bool {
	o, ok := i.(*collider)
	return ok && o.name == c.name && o.salt == c.salt
}
