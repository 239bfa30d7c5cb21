package matrix

import "errors"

// Sentinel errors for the matrix builder.
var (
	ErrUnknownFormat = errors.New("unknown matrix format")
	ErrWrite         = errors.New("write matrix failed")
)
