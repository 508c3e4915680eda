package model

import (
	"github.com/mark3labs/apigen/internal/errs"
)

// Container is an ordered set of Variables keyed by name. Iteration follows
// insertion order.
type Container struct {
	order []*Variable
	index map[string]int
}

func NewContainer() *Container {
	return &Container{index: map[string]int{}}
}

// Add appends v. A duplicate name is errs.InvalidInput and leaves the
// container unchanged.
func (c *Container) Add(v *Variable) error {
	if v == nil || v.Name == "" {
		return errs.New(errs.InvalidInput, "variable has no name")
	}
	if _, dup := c.index[v.Name]; dup {
		return errs.New(errs.InvalidInput, "duplicate field %q", v.Name)
	}
	c.index[v.Name] = len(c.order)
	c.order = append(c.order, v)
	return nil
}

func (c *Container) Get(name string) (*Variable, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.order[i], true
}

func (c *Container) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

func (c *Container) Len() int { return len(c.order) }

// All returns the variables in insertion order.
func (c *Container) All() []*Variable {
	return append([]*Variable(nil), c.order...)
}

func (c *Container) Names() []string {
	out := make([]string, len(c.order))
	for i, v := range c.order {
		out[i] = v.Name
	}
	return out
}

func (c *Container) Required() []*Variable {
	return c.filter(func(v *Variable) bool { return v.Required })
}

func (c *Container) Optional() []*Variable {
	return c.filter(func(v *Variable) bool { return !v.Required })
}

// Objects returns the object valued variables.
func (c *Container) Objects() []*Variable {
	return c.filter(func(v *Variable) bool { return v.Object != nil })
}

// TypeHistogram counts variables per resolved kind. Object valued fields
// that are not collections count as Object.
func (c *Container) TypeHistogram() map[Kind]int {
	h := map[Kind]int{}
	for _, v := range c.order {
		k := v.Type.Kind
		if v.Object != nil && !v.IsCollection() {
			k = Object
		}
		h[k]++
	}
	return h
}

func (c *Container) filter(keep func(*Variable) bool) []*Variable {
	var out []*Variable
	for _, v := range c.order {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}
