package kmdb

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a search could not produce results.
type ErrorKind string

const (
	KindConfigMissing ErrorKind = "config_missing"
	KindUpstreamHTTP  ErrorKind = "upstream_http_error"
	KindUpstreamParse ErrorKind = "upstream_parse_error"
	KindNetwork       ErrorKind = "network_error"
)

// Error is the failure result of one upstream search attempt. StatusCode is
// set for upstream_http_error; Body holds the raw upstream body for
// upstream_parse_error and is meant for server-side logging only.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindConfigMissing:
		return "kmdb: service key is not configured"
	case KindUpstreamHTTP:
		return fmt.Sprintf("kmdb: upstream returned status %d", e.StatusCode)
	case KindUpstreamParse:
		return "kmdb: upstream response is not valid JSON"
	case KindNetwork:
		return fmt.Sprintf("kmdb: request failed: %v", e.Err)
	}
	return "kmdb: search failed"
}

func (e *Error) Unwrap() error { return e.Err }

// Kind reports the ErrorKind of err, or "" if err is not a kmdb error.
func Kind(err error) ErrorKind {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind
	}
	return ""
}
