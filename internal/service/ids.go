package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// generateULID creates a new ULID string. ulid.Make draws from a monotonic
// entropy source, so ids minted within the same millisecond still sort and
// never collide.
func generateULID() string {
	return ulid.Make().String()
}

// idTime recovers the creation time encoded in a message id. It understands
// ULIDs and the legacy "<unix-millis>[-suffix]" form.
func idTime(id string) (time.Time, bool) {
	if parsed, err := ulid.ParseStrict(id); err == nil {
		return ulid.Time(parsed.Time()), true
	}
	head, _, _ := strings.Cut(id, "-")
	ms, err := strconv.ParseInt(head, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
