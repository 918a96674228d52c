package response

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/narrator-cli/internal/core/domain"
)

// maxErrorBody bounds how much of an error body is kept in messages.
const maxErrorBody = 512

// quotaMarkers are lower-cased fragments that identify quota or rate limit
// failures regardless of status code.
var quotaMarkers = []string{
	"resource_exhausted",
	"quota",
	"rate limit",
	"rate_limit",
	"ratelimit",
	"too many requests",
}

// Classify maps a non-2xx provider response onto the error taxonomy.
// Quota and rate limit failures become *domain.QuotaError with any retry
// hint found in the body; everything else is a *domain.TransientError.
func Classify(status int, body []byte) error {
	msg := truncate(strings.TrimSpace(string(body)))
	if IsQuota(status, body) {
		delay, _ := domain.ParseRetryDelay(string(body))
		return &domain.QuotaError{RetryAfter: delay, Message: msg}
	}
	delay, _ := domain.ParseRetryDelay(string(body))
	return &domain.TransientError{
		Status:     status,
		RetryAfter: delay,
		Err:        fmt.Errorf("provider returned status %d: %s", status, msg),
	}
}

// IsQuota reports whether a response signals a rate or quota limit.
func IsQuota(status int, body []byte) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	lower := strings.ToLower(string(body))
	for _, m := range quotaMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
func ParseRetryAfter(h http.Header, now time.Time) (time.Duration, bool) {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d, true
		}
	}
	return 0, false
}

// Transport wraps a failed HTTP round trip as a transient error.
func Transport(err error) error {
	return &domain.TransientError{Err: err}
}

// Read consumes resp and returns the extracted text, or a classified error.
// A Retry-After header fills in the delay when the body carries no hint.
func Read(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Transport(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		cerr := Classify(resp.StatusCode, body)
		if hint, ok := ParseRetryAfter(resp.Header, time.Now()); ok {
			switch e := cerr.(type) {
			case *domain.QuotaError:
				if e.RetryAfter == 0 {
					e.RetryAfter = hint
				}
			case *domain.TransientError:
				if e.RetryAfter == 0 {
					e.RetryAfter = hint
				}
			}
		}
		return "", cerr
	}

	return ExtractBytes(body)
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
