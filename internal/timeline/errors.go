package timeline

import "errors"

// ErrNoInitcallData means the log holds no usable callback data at all,
// which points at a failed capture rather than a damaged one.
var ErrNoInitcallData = errors.New("no initcall data found")
