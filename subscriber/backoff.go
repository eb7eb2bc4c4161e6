package subscriber

import "time"

// ReconnectPolicy is capped exponential backoff with a bounded attempt
// count. After MaxAttempts failures the manager stops retrying and surfaces
// a connectivity error instead of looping forever.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultReconnectPolicy mirrors the client defaults: 5 attempts, 1s base
// delay, 5s cap.
func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Second,
	}
}

// Delay returns the wait before the given retry attempt (first retry is
// attempt 0): base * 2^attempt, capped at MaxDelay.
func (p ReconnectPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}
