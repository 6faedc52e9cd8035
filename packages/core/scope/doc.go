// Package scope holds a test unit's variable table: the caller-side home
// for values that patterns pin against and that successful matches rebind.
//
// The table is ordered and scope-aware. Same-named variables in different
// lexical scopes are distinct entries; name lookup resolves to the most
// recently entered scope, the way shadowing reads in source. Matched
// bindings come back from the engine as an explicit set and are merged in
// by the unit driver, never written behind the caller's back.
package scope
