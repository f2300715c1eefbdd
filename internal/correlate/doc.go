// Package correlate attaches call graphs and trace events produced by the
// trace pass to the device callbacks found by the kernel pass.
package correlate
