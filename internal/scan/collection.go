package scan

import (
	"github.com/dshills/shieldscan/internal/client"
)

// Collection is an ordered set of units keyed by filename.
type Collection struct {
	order []string
	units map[string]Unit
}

// NewCollection builds a Collection from units. When two units share a
// filename the last one wins; it takes the position of the first.
func NewCollection(units []Unit) *Collection {
	c := &Collection{units: make(map[string]Unit, len(units))}
	for _, u := range units {
		if _, ok := c.units[u.filename]; !ok {
			c.order = append(c.order, u.filename)
		}
		c.units[u.filename] = u
	}
	return c
}

// Len returns the number of units.
func (c *Collection) Len() int { return len(c.order) }

// Get returns the unit for filename.
func (c *Collection) Get(filename string) (Unit, bool) {
	u, ok := c.units[filename]
	return u, ok
}

// Units returns the units in order.
func (c *Collection) Units() []Unit {
	out := make([]Unit, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.units[name])
	}
	return out
}

// Payloads returns the API payload of every unit, in order.
func (c *Collection) Payloads() []client.Payload {
	out := make([]client.Payload, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.units[name].Payload())
	}
	return out
}

// Filter returns a new Collection with the units for which keep is true.
func (c *Collection) Filter(keep func(Unit) bool) *Collection {
	var units []Unit
	for _, u := range c.Units() {
		if keep(u) {
			units = append(units, u)
		}
	}
	return NewCollection(units)
}

// WithExtensions returns the units having one of the given extensions
// (".tf", ".yaml", ...).
func (c *Collection) WithExtensions(exts ...string) *Collection {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[e] = struct{}{}
	}
	return c.Filter(func(u Unit) bool { return u.HasExtensions(set) })
}

// RelativeTo returns a new Collection whose filenames are relative to root.
func (c *Collection) RelativeTo(root string) (*Collection, error) {
	units := make([]Unit, 0, len(c.order))
	for _, u := range c.Units() {
		rel, err := u.RelativeTo(root)
		if err != nil {
			return nil, err
		}
		units = append(units, rel)
	}
	return NewCollection(units), nil
}
