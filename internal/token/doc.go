// Package token defines the typed tokens produced from raw log lines.
// Invariants:
//   - A Token is a value; it never references the line it came from except
//     through Span and the copied string fields.
//   - Time and Dur are seconds. Function-graph durations are converted from
//     microseconds by the lexer.
//   - Header tokens (Stamp, Firmware, Tracer) are recognized in every format.
//   - Graph is only meaningful for FuncGraph tokens; Nop tokens always carry
//     GraphEvent since every nop line is a discrete trace event.
package token
