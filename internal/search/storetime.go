package search

import "time"

// AppleEpochOffset is the number of seconds between the Unix epoch
// (1970-01-01T00:00:00Z) and the Apple reference date (2001-01-01T00:00:00Z)
// used by chat.db.
const AppleEpochOffset int64 = 978307200

// nanosPerSecond is the store-time resolution: chat.db dates are signed
// nanoseconds since the Apple reference date.
const nanosPerSecond int64 = 1_000_000_000

// UnixToStore converts Unix seconds to chat.db store time.
func UnixToStore(unixSeconds int64) int64 {
	return (unixSeconds - AppleEpochOffset) * nanosPerSecond
}

// StoreToUnix converts chat.db store time to Unix seconds. Sub-second
// precision is truncated toward zero.
func StoreToUnix(storeNanos int64) int64 {
	return storeNanos/nanosPerSecond + AppleEpochOffset
}

// TimeToStore converts a time.Time to store time at second resolution.
func TimeToStore(t time.Time) int64 {
	return UnixToStore(t.Unix())
}
