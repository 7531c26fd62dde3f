package util

import "time"

// NowMillis returns the current time as unix milliseconds. Overlay consumers
// de-duplicate hype events by this value.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// MinDuration returns the smaller of two durations.
func MinDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
