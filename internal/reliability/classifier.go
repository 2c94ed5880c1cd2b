package reliability

import (
	"errors"
	"time"
)

// IsRetryableHTTPStatus classifies retryable HTTP status codes for the
// external data-source fetches.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

type apiErrorCoder interface {
	ErrorCode() string
}

// IsThrottle reports whether err is a hosted-model throttling response.
// Only throttling is retried; every other model error is fatal for the
// request.
func IsThrottle(err error) bool {
	var coded apiErrorCoder
	if !errors.As(err, &coded) {
		return false
	}
	switch coded.ErrorCode() {
	case "ThrottlingException", "TooManyRequestsException", "ServiceQuotaExceededException":
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
