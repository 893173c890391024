package client

import "fmt"

// NetworkError means no usable response was received: the connection could
// not be established, was interrupted, or the request context ended.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a response with a non-success status code.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Status, e.Body)
}

// DecodeError means the response body was not the expected JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: invalid JSON response: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind returns a short label for an error returned by this package, used for
// metrics and log attributes.
func Kind(err error) string {
	switch err.(type) {
	case nil:
		return "ok"
	case *NetworkError:
		return "network"
	case *HTTPError:
		return "http"
	case *DecodeError:
		return "decode"
	default:
		return "other"
	}
}
