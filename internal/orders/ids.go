package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IDGenerator returns a new order id for an order created at now. taken
// reports whether an id is already used.
type IDGenerator func(now time.Time, taken func(id string) bool) string

const suffixSpace = 1_000_000

// TimestampIDs builds ids of the form ORD-dddddd from the last six digits of
// the epoch milliseconds. A suffix that is already taken is advanced until a
// free one is found, so ids stay unique within the collection.
func TimestampIDs(now time.Time, taken func(string) bool) string {
	suffix := now.UnixMilli() % suffixSpace
	for i := int64(0); i < suffixSpace; i++ {
		id := fmt.Sprintf("ORD-%06d", (suffix+i)%suffixSpace)
		if !taken(id) {
			return id
		}
	}
	return fmt.Sprintf("ORD-%06d", suffix)
}

// UUIDIDs builds ids of the form ORD-<uuid>.
func UUIDIDs(_ time.Time, taken func(string) bool) string {
	for {
		id := "ORD-" + uuid.New().String()
		if !taken(id) {
			return id
		}
	}
}
