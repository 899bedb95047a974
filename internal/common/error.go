package common

import "fmt"

var (
	// ErrConfiguration covers malformed source descriptors: bad template
	// grammar, non-unique cache paths, missing required fields. Never retried.
	ErrConfiguration = fmt.Errorf("configuration error")
	// ErrDataNotFound means cadence detection exhausted its probe window.
	ErrDataNotFound = fmt.Errorf("data not found")
	// ErrRemoteFetch covers transport, listing and transfer failures.
	ErrRemoteFetch = fmt.Errorf("remote fetch error")
)
