package pattern

import (
	"github.com/abdul-hamid-achik/attest/packages/core/ast"
	"github.com/abdul-hamid-achik/attest/packages/report"
)

// Validate checks that p is structurally usable before any matching is
// attempted. Violations are caller misuse, reported as ConfigError.
func Validate(p ast.Pattern) error {
	return validate(p, false)
}

func validate(p ast.Pattern, entryOK bool) error {
	switch n := p.(type) {
	case nil:
		return report.Config("pattern must not be nil")
	case *ast.Lit, *ast.Wildcard:
		return nil
	case *ast.Var:
		if n.Name == "" {
			return report.Config("variable pattern must have a name")
		}
		return nil
	case *ast.Pin:
		if n.Name == "" {
			return report.Config("pinned variable must have a name")
		}
		return nil
	case *ast.Guarded:
		if n.Guard == nil {
			return report.Config("guarded pattern must carry a guard function")
		}
		return validate(n.Pattern, false)
	case *ast.Compound:
		return validateCompound(n, entryOK)
	default:
		return report.Config("unknown pattern node %T", p)
	}
}

func validateCompound(c *ast.Compound, entryOK bool) error {
	switch c.Kind {
	case ast.KindEntry:
		if !entryOK {
			return report.Config("entry pattern is only valid inside a map or struct pattern")
		}
		if len(c.Children) != 2 {
			return report.Config("entry pattern must have a key and a value, got %d children", len(c.Children))
		}
		switch c.Children[0].(type) {
		case *ast.Lit, *ast.Pin:
		default:
			return report.Config("entry key must be a literal or a pinned variable, got %T", c.Children[0])
		}
		return validate(c.Children[1], false)
	case ast.KindMap, ast.KindStruct:
		for _, ch := range c.Children {
			entry, ok := ch.(*ast.Compound)
			if !ok || entry.Kind != ast.KindEntry {
				return report.Config("%s pattern children must be entries, got %T", c.Kind, ch)
			}
			if err := validate(entry, true); err != nil {
				return err
			}
			if c.Kind == ast.KindStruct {
				if key, ok := entryKey(entry); ok {
					if _, isString := key.(string); !isString {
						return report.Config("struct field name must be a string, got %T", key)
					}
				}
			}
		}
		return nil
	case ast.KindSlice:
		for _, ch := range c.Children {
			if err := validate(ch, false); err != nil {
				return err
			}
		}
		return nil
	default:
		return report.Config("unknown compound kind %d", int(c.Kind))
	}
}
