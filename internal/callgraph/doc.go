// Package callgraph rebuilds call trees from function_graph trace lines.
//
// Lines are grouped by (proc, pid). Each group carries one depth counter
// that is reset for every new graph:
//
//   - a call with children takes the counter, then increments it;
//   - a return decrements the counter, then takes it;
//   - a leaf takes the counter unchanged.
//
// A return or leaf at depth 0 closes the graph. A graph that grows past
// MaxLines or drives the counter negative is marked invalid and truncated
// to its first line; it then swallows lines until a return whose own
// indentation is at depth 0 closes it. SanityCheck replays a closed graph
// with a stack before it may be attached to a device.
package callgraph
