package etc

import (
	"time"

	"github.com/nrednav/cuid2"
)

func NewFreshID() string {
	return cuid2.Generate()
}

// NewRecordID returns a time-derived identifier with millisecond
// resolution, monotonic within one process for human-paced events.
func NewRecordID() int64 {
	return time.Now().UnixMilli()
}
