// Package pattern matches runtime values against pattern trees and
// inventories the variables and pins a pattern mentions.
//
// Matching walks value and pattern together, depth-first and left to
// right, accumulating bindings as it goes. A failed match discards every
// binding; callers never observe a partially bound set. Equality is
// strict throughout: same dynamic type, then deep equality.
//
// Collection is the static side: given a pattern and the enclosing scope,
// Collect returns the variables the pattern would bind and the pins it
// compares against, in deterministic first-occurrence order. Collection
// never evaluates guards and never matches anything.
package pattern
