package model

// Unset marks a time that was never observed in the log.
const Unset = -1.0

// IsSet reports whether t was observed. Only meaningful before the run is
// normalized, since normalized times may be negative.
func IsSet(t float64) bool { return t >= 0 }
