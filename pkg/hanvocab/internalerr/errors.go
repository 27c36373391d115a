package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrFetch            = errors.New("fetch failed")
	ErrEmptyReference   = errors.New("reference file has no entries")
	ErrEmptyVocabulary  = errors.New("vocabulary has no entries")
	ErrStoreUnavailable = errors.New("store unavailable")
)
