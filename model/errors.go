package model

import "errors"

var (
	// ErrNotFound is returned when a remote id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRecord is returned when a required field is missing in raw data.
	// It invalidates the whole graph being built.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrUnknownSynset is returned when a synset name is missing from the dictionary.
	ErrUnknownSynset = errors.New("unknown synset")
	// ErrInvalidConfig is returned when a configuration value is not supported.
	ErrInvalidConfig = errors.New("invalid config")
)
