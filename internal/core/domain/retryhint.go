package domain

import (
	"regexp"
	"strconv"
	"time"
)

// retryHintPatterns match the retry-delay hints providers embed in error text.
// The first capture group is the delay in seconds.
var retryHintPatterns = []*regexp.Regexp{
	// Gemini gRPC style: retry_delay { seconds: 37 }
	regexp.MustCompile(`retry_delay\s*\{\s*seconds:\s*([0-9]+)`),
	// Gemini REST style: "retryDelay": "37s"
	regexp.MustCompile(`"retryDelay"\s*:\s*"([0-9]+(?:\.[0-9]+)?)s"`),
	// Free text: "Please retry in 12.5s", "retry after 20 seconds"
	regexp.MustCompile(`(?i)retry\s+(?:in\s+|after\s+)?([0-9]+(?:\.[0-9]+)?)\s*s`),
}

// ParseRetryDelay extracts a server-suggested retry delay from error text.
// It returns false when no positive hint is present.
func ParseRetryDelay(msg string) (time.Duration, bool) {
	for _, re := range retryHintPatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		secs, err := strconv.ParseFloat(m[1], 64)
		if err != nil || secs <= 0 {
			continue
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	return 0, false
}
