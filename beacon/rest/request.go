package rest

import (
	"strconv"
	"time"

	"github.com/beacon-chat/beacon-go/beacon/ratelimit"
)

// parseHeaderFields fills in the numeric rate-limit header fields. Retry
// After is optional (only present on 429 responses); a missing or
// unparsable value leaves h.RetryAfter at its zero value, on which the caller
// falls back to the body's retry_after field and then to a default wait.
func parseHeaderFields(h *ratelimit.Header, limit, remaining, reset, retryAfter []byte) error {
	l, err := strconv.Atoi(string(limit))
	if err != nil {
		return err
	}

	r, err := strconv.Atoi(string(remaining))
	if err != nil {
		return err
	}

	resetSeconds, err := strconv.ParseFloat(string(reset), 64)
	if err != nil {
		return err
	}

	h.Limit = l
	h.Remaining = r
	h.Reset = time.Unix(0, int64(resetSeconds*float64(time.Second)))

	if len(retryAfter) > 0 {
		if ra, err := strconv.ParseFloat(string(retryAfter), 64); err == nil {
			h.RetryAfter = time.Duration(ra * float64(time.Second))
		}
	}

	return nil
}
