package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/pfrederiksen/comp-scout/internal/competition"
)

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	ErrTimeout    ErrorKind = "timeout"
	ErrNetwork    ErrorKind = "network"
	ErrNavigation ErrorKind = "navigation"
	ErrStatus     ErrorKind = "status"
)

// FetchError is returned for every failed fetch.
type FetchError struct {
	Site       competition.Site
	URL        string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == ErrStatus:
		return fmt.Sprintf("fetching %s: unexpected status code: %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetching %s: %s", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch ran out of time, including an
// abandoned fetch whose batch deadline passed.
func (e *FetchError) Timeout() bool {
	return e.Kind == ErrTimeout
}

// IsTimeout reports whether err is, or wraps, a timed-out fetch.
func IsTimeout(err error) bool {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Timeout()
	}
	return isTimeoutCause(err)
}

// AsFetchError returns err as a *FetchError for req, classifying causes
// that are not already one.
func AsFetchError(req Request, err error) *FetchError {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return &FetchError{Site: req.Site, URL: req.URL, Kind: classify(err), Err: err}
}

func statusError(req Request, code int) *FetchError {
	return &FetchError{
		Site:       req.Site,
		URL:        req.URL,
		Kind:       ErrStatus,
		StatusCode: code,
		Err:        fmt.Errorf("unexpected status code: %d", code),
	}
}

func classify(err error) ErrorKind {
	if isTimeoutCause(err) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrNetwork
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return ErrNetwork
	}
	// Chrome reports transport failures as navigation errors with a
	// net::ERR_ code in the message.
	if strings.Contains(err.Error(), "net::ERR_") {
		return ErrNetwork
	}
	return ErrNavigation
}

func isTimeoutCause(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
