package region

import "errors"

var (
	// ErrInvalidFormat: region file magic/version mismatch or header
	// inconsistency. Reported; the file is not opened; queries fall
	// through to the generator.
	ErrInvalidFormat = errors.New("region: invalid file format")
	// ErrIO: read/write failed. Reported with path; reads fall through
	// to the generator; writes abort the save and the affected block
	// remains flagged modified for retry.
	ErrIO = errors.New("region: io error")
)
