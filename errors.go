package pacx

import "errors"

var (
	ErrInvalidMagic       = errors.New("pacx: invalid magic")
	ErrUnsupportedVersion = errors.New("pacx: unsupported version")
	ErrInvalidHeader      = errors.New("pacx: invalid header")
	ErrCorruptArchive     = errors.New("pacx: corrupt archive")
	ErrLimitExceeded      = errors.New("pacx: limit exceeded")
	ErrValidation         = errors.New("pacx: validation failed")
	ErrUnresolvedProxy    = errors.New("pacx: unresolved proxy entry")
)
