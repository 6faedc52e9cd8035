// Package runner executes suites of test units.
//
// Each unit runs as isolated sequential code with its own variable table
// and private mailbox; units never share assertion state. A unit's body,
// its helper goroutines and its cleanup hooks can each fail independently,
// and every failure is collected into the unit's result rather than only
// the first one surviving.
//
// Suites run sequentially by default, or in parallel under a bounded
// semaphore; bail mode stops a sequential run at the first failed unit.
package runner
