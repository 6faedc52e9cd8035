package pattern

import (
	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/report"
)

// Collected is the deterministic inventory of a pattern: the variables it
// will bind and the pins it compares against, both in first-occurrence
// pre-order. It is computed without matching anything.
type Collected struct {
	Bound  []ast.VarRef
	Pinned []report.PinnedVar
}

// Collect walks p and gathers its variable and pin inventory. Every pin
// must resolve in enclosing; a pin referencing nothing is caller misuse
// and returns a ConfigError before any matching could happen. The pinned
// values reported are the enclosing scope's, frozen at collection time.
func Collect(p ast.Pattern, enclosing map[ast.VarRef]any) (*Collected, error) {
	c := &collector{
		enclosing: enclosing,
		boundSeen: make(map[ast.VarRef]bool),
		pinSeen:   make(map[ast.VarRef]bool),
	}
	if err := c.walk(p); err != nil {
		return nil, err
	}
	return &Collected{Bound: c.bound, Pinned: c.pinned}, nil
}

// Pins returns the pinned variables p mentions, with the values the
// front-end resolved into them, in first-occurrence pre-order. Unlike
// Collect it performs no enclosing-scope check: the pins already carry
// their values.
func Pins(p ast.Pattern) []report.PinnedVar {
	seen := make(map[ast.VarRef]bool)
	var out []report.PinnedVar
	ast.Walk(p, func(n ast.Pattern) bool {
		if pin, ok := n.(*ast.Pin); ok {
			if ref := pin.Ref(); !seen[ref] {
				seen[ref] = true
				out = append(out, report.PinnedVar{Name: pin.Name, Value: pin.Value})
			}
		}
		return true
	})
	return out
}

type collector struct {
	enclosing map[ast.VarRef]any
	bound     []ast.VarRef
	pinned    []report.PinnedVar
	boundSeen map[ast.VarRef]bool
	pinSeen   map[ast.VarRef]bool
}

func (c *collector) walk(p ast.Pattern) error {
	switch n := p.(type) {
	case *ast.Var:
		c.addBound(n.Ref())
	case *ast.Pin:
		ref := n.Ref()
		v, ok := c.enclosing[ref]
		if !ok {
			return report.Config("pinned variable ^%s is not bound in the enclosing scope", n.Name)
		}
		if !c.pinSeen[ref] {
			c.pinSeen[ref] = true
			c.pinned = append(c.pinned, report.PinnedVar{Name: n.Name, Value: v})
		}
	case *ast.Compound:
		for _, ch := range n.Children {
			if err := c.walk(ch); err != nil {
				return err
			}
		}
	case *ast.Guarded:
		before := len(c.bound)
		if err := c.walk(n.Pattern); err != nil {
			return err
		}
		inner := make(map[ast.VarRef]bool, len(c.bound)-before)
		for _, ref := range c.bound[before:] {
			inner[ref] = true
		}
		// guard refs come after the inner pattern's contributions;
		// refs the inner pattern does not bind are skipped
		for _, ref := range n.Refs {
			if inner[ref] {
				c.addBound(ref)
			}
		}
	}
	return nil
}

func (c *collector) addBound(ref ast.VarRef) {
	if c.boundSeen[ref] {
		return
	}
	c.boundSeen[ref] = true
	c.bound = append(c.bound, ref)
}
