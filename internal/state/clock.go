package state

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	siteID = uuid.NewString()
	lastTS atomic.Int64

	// now is swapped by tests.
	now = func() int64 { return time.Now().UnixMilli() }
)

// SiteID identifies this process when no author id is configured.
func SiteID() string {
	return siteID
}

// NextTimestamp returns the wall clock in milliseconds, bumped past the
// previous value so two strokes from one client never share a timestamp.
func NextTimestamp() int64 {
	for {
		prev := lastTS.Load()
		ts := now()
		if ts <= prev {
			ts = prev + 1
		}
		if lastTS.CompareAndSwap(prev, ts) {
			return ts
		}
	}
}
