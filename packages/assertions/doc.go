// Package assertions decides whether an assertion passes and builds the
// diagnostic payload when it does not.
//
// An assertion arrives as an expression tree from packages/core/ast.
// Classify inspects the tree and produces an evaluation plan:
//   - recognized comparisons get the operator-aware rewrite (operands
//     evaluated exactly once, with the exactly-equal pre-check for the
//     strict-inequality operators)
//   - direct match forms run the pattern matcher and hand captured
//     bindings back to the caller
//   - match predicates test for match/no-match only
//   - everything else is evaluated for truthiness
//
// Failures surface as *report.Failure; caller misuse (guards in a direct
// match, negative receive timeouts) surfaces as *report.ConfigError before
// anything is evaluated.
//
// The package also carries the timed mailbox assertions (AssertReceive and
// friends) and the raise/catch helpers over panic-delivered signals.
package assertions
