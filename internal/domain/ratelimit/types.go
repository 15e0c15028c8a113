// Package ratelimit defines the throttling policy applied to the
// unauthenticated identity endpoints.
package ratelimit

import (
	"fmt"
	"time"
)

// Policy allows Requests events per Window for a single key.
type Policy struct {
	// Requests is the sustained number of events allowed per Window.
	Requests int
	// Burst caps how many events may arrive back to back. Zero means Requests.
	Burst int
	// Window is the period Requests is measured over.
	Window time.Duration
}

// interval is the spacing between events at the sustained rate.
func (p Policy) interval() time.Duration {
	n := p.Requests
	if n <= 0 {
		n = 1
	}
	return p.Window / time.Duration(n)
}

// burst returns the effective burst size.
func (p Policy) burst() int {
	if p.Burst > 0 {
		return p.Burst
	}
	if p.Requests > 0 {
		return p.Requests
	}
	return 1
}

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed bool
	// Remaining is how many further events fit in the current burst.
	Remaining int
	// RetryAfter is set when Allowed is false.
	RetryAfter time.Duration
}

// Scope names what a key is counted against.
type Scope string

// ScopeClientIP counts per client address.
const ScopeClientIP Scope = "ip"

// Key builds the limiter key "<scope>:<endpoint>:<value>".
func Key(scope Scope, endpoint, value string) string {
	return fmt.Sprintf("%s:%s:%s", scope, endpoint, value)
}
