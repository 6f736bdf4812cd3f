package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
)

// IsTimeout reports whether err (or any error in its chain) is a deadline
// expiry or a network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "context deadline exceeded")
}

// IsAuthStatus reports whether an HTTP status means the credential was rejected.
func IsAuthStatus(statusCode int) bool {
	return statusCode == 401 || statusCode == 403
}

// authPatterns are message fragments providers use for rejected credentials.
var authPatterns = []string{
	"authentication",
	"unauthorized",
	"unauthenticated",
	"invalid api key",
	"invalid x-api-key",
	"api key not valid",
	"permission denied",
}

// LooksLikeAuthFailure inspects an error message for credential rejection
// when no typed status is available.
func LooksLikeAuthFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range authPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
