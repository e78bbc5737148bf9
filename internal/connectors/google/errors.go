package google

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/googleapi"
)

var (
	ErrUnauthorized = errors.New("google: credentials rejected")
	ErrForbidden    = errors.New("google: caller lacks access to the resource")
	ErrNotFound     = errors.New("google: resource not found")
	ErrRateLimited  = errors.New("google: quota exceeded")
)

// statusErrors maps the API status codes callers branch on.
var statusErrors = map[int]error{
	http.StatusUnauthorized:    ErrUnauthorized,
	http.StatusForbidden:       ErrForbidden,
	http.StatusNotFound:        ErrNotFound,
	http.StatusTooManyRequests: ErrRateLimited,
}

func apiError(err error) (*googleapi.Error, bool) {
	var gerr *googleapi.Error
	ok := errors.As(err, &gerr)
	return gerr, ok
}

// IsRateLimited reports whether err is a 429 or already classified as one.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	gerr, ok := apiError(err)
	return ok && gerr.Code == http.StatusTooManyRequests
}

// RetryAfter reads the Retry-After header of an API error. Only the
// delay-seconds form is understood; anything else yields zero.
func RetryAfter(err error) time.Duration {
	gerr, ok := apiError(err)
	if !ok || gerr.Header == nil {
		return 0
	}
	secs, convErr := strconv.Atoi(gerr.Header.Get("Retry-After"))
	if convErr != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// WrapError joins a known sentinel onto an API error so callers can use
// errors.Is. Other errors are returned unchanged.
func WrapError(err error) error {
	gerr, ok := apiError(err)
	if !ok {
		return err
	}
	if sentinel, known := statusErrors[gerr.Code]; known {
		return errors.Join(sentinel, err)
	}
	return err
}
