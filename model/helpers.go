package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Timestamp returns the current time in milliseconds since the epoch.
func Timestamp() int64 {
	return time.Now().UnixNano() / int64(time.Millisecond)
}

// NewID produces a new unique identifier for entities created by this
// service.
func NewID() string {
	return strings.Replace(uuid.NewString(), "-", "", -1)
}
