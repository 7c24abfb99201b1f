package common

import "errors"

var (
	// ErrInvalidInput marks bad tickers, empty signal sets and malformed user input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDataUnavailable marks an upstream fetch that failed or returned nothing usable.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrParseFailure marks producer output that could not be interpreted.
	ErrParseFailure = errors.New("parse failure")
	// ErrNoUsableSignals is the only fatal condition of an analysis.
	ErrNoUsableSignals = errors.New("no usable signals")
)
