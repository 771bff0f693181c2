package dispatch

import "errors"

var (
	// ErrAmbiguousTarget means no known name scored above the fuzzy threshold
	// and the text did not look like an address.
	ErrAmbiguousTarget = errors.New("target not recognized")

	// ErrIncompleteSearch means a search named a platform but no query.
	ErrIncompleteSearch = errors.New("search query missing")

	// ErrLaunchFailed means the launcher reported failure.
	ErrLaunchFailed = errors.New("launch failed")
)
