package conceptnet

import (
	"errors"
)

var (
	// ErrTransport marks failures to reach the endpoint or read its response.
	ErrTransport = errors.New("transport failure")

	// ErrInvalidJSON marks a response body that is not valid JSON.
	ErrInvalidJSON = errors.New("the endpoint returned an invalid JSON response")

	// ErrCountFailed marks a count response without a usable edge count.
	ErrCountFailed = errors.New("count query failed")
)

// EndpointError is reported on a result stream when a request against the
// endpoint fails.
type EndpointError struct {
	Endpoint string
	Err      error
}

func (e *EndpointError) Error() string {
	return "error accessing ConceptNet endpoint " + e.Endpoint + ": " + e.Err.Error()
}

func (e *EndpointError) Unwrap() error {
	return e.Err
}
