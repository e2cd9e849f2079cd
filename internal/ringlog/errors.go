package ringlog

import "errors"

var (
	// ErrStoreUnavailable is returned by Open when the store cannot be opened
	// or scanned.
	ErrStoreUnavailable = errors.New("ringlog: record store unavailable")
	// ErrAppendFailed marks a dropped write or a failed eviction. It is only
	// ever reported to the logger.
	ErrAppendFailed = errors.New("ringlog: append failed")
	// ErrCorruptRecord marks a record that cannot be decoded.
	ErrCorruptRecord = errors.New("ringlog: corrupt record")
	// ErrInvalidConfiguration is returned by setters given unusable values.
	ErrInvalidConfiguration = errors.New("ringlog: invalid configuration")
)

// SizeUndefined is reported by Writer.Size when there is nothing to measure.
const SizeUndefined int64 = -1
