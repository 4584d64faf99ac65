package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

func IsRetryableHTTPStatus(code int) bool {
	if code == 408 || code == 429 {
		return true
	}
	return code >= 500 && code <= 599
}

// IsTransportError reports whether err is a connectivity-level failure
// (timeout, refused connection, canceled dial) rather than an HTTP response.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RetryAfterHint parses the Retry-After header of resp, accepting both the
// delta-seconds and HTTP-date forms. Returns 0 when absent or unparseable,
// and caps the result at max when max > 0.
func RetryAfterHint(resp *http.Response, max time.Duration) time.Duration {
	if resp == nil {
		return 0
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0
	}
	var d time.Duration
	if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
		d = time.Duration(secs) * time.Second
	} else if at, err := http.ParseTime(ra); err == nil {
		if until := time.Until(at); until > 0 {
			d = until
		}
	}
	if max > 0 && d > max {
		d = max
	}
	return d
}
