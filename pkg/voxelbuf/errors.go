package voxelbuf

import "errors"

// Error kinds. Callers use errors.Is against these
// sentinels; operations that wrap them add the offending coordinate or
// channel with fmt.Errorf("...: %w", ...).
var (
	ErrBoundsViolation = errors.New("voxelbuf: coordinate outside buffer bounds")
	ErrInvalidChannel  = errors.New("voxelbuf: invalid channel index")
	ErrInvalidDepth    = errors.New("voxelbuf: unsupported channel depth")
)
