package sociograph

import "errors"

var (
	// ErrEmptyInput is returned when extraction is asked to run on empty text.
	ErrEmptyInput = errors.New("sociograph: empty input text")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("sociograph: invalid configuration")

	// ErrUnsupportedFormat is returned for unrecognized document formats.
	ErrUnsupportedFormat = errors.New("sociograph: unsupported document format")

	// ErrParsingFailed is returned when document parsing fails.
	ErrParsingFailed = errors.New("sociograph: parsing failed")

	// ErrPersistenceDisabled is returned when run history is requested but
	// no store is configured.
	ErrPersistenceDisabled = errors.New("sociograph: persistence is disabled")
)
