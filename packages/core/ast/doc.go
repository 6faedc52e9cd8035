// Package ast defines the expression and pattern trees handed to the
// assertion engine.
//
// Expression nodes describe what a front-end saw at the call site:
//   - Comparison: a binary expression under a known operator
//   - Match: a direct destructuring match that binds variables
//   - MatchPredicate: a boolean match test, guards allowed
//   - Opaque: anything else, evaluated only for truthiness
//
// Pattern nodes describe one structural shape to match a value against:
// literals, variable bindings, wildcards, pinned variables, compounds
// (slices, maps, structs) and guarded patterns.
//
// Operands travel as Terms, which pair source text with a thunk that is
// forced at most once. Trees are immutable once built; all evaluation
// state lives in the engine.
package ast
