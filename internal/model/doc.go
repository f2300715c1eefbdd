// Package model holds the object graph reconstructed from one capture.
//
// A TestRun owns its phases in order. A Phase owns a DeviceList, an
// insertion-ordered map from device name to DeviceCallback. A callback owns
// its CallGraph and TraceEvents once the correlator attached them. Parents
// are plain names, resolved through the phases of the same group (all
// "suspend*" or all "resume*" phases) whenever a lookup needs them.
//
// Times are float64 seconds. Before normalization every time is either a
// kernel timestamp (>= 0) or Unset.
package model
