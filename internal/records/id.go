package records

import (
	"strconv"
	"time"
)

// NextID returns prefix-<epoch millis of now>. When that ID is taken, the
// next free millisecond value is used instead.
func NextID(prefix string, now time.Time, taken func(string) bool) string {
	ms := now.UnixMilli()
	for {
		id := prefix + "-" + strconv.FormatInt(ms, 10)
		if taken == nil || !taken(id) {
			return id
		}
		ms++
	}
}
