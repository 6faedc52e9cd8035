// Package output renders run results.
//
// Formatters share one small interface: FormatHeader once, FormatResult
// per suite run, Flush at the end. The console formatter lays a failure
// out according to its diagnostic context (two operands for comparisons,
// pattern/value/pins for matches, pattern/pins/queue snapshot for mailbox
// waits); operands are rendered verbatim, diffing is out of scope. The
// JSON formatter writes the round-trippable report document the CLI's
// render command reads back.
package output
