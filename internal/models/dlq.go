package models

import (
	"time"
)

// FailedMessage is what the consumer parks on the DLQ topic once retries are
// exhausted.
type FailedMessage struct {
	Topic      string    `json:"topic"`
	Partition  int32     `json:"partition"`
	Offset     int64     `json:"offset"`
	Key        string    `json:"key,omitempty"`
	Payload    []byte    `json:"payload"`
	Timestamp  time.Time `json:"timestamp"`
	Attempts   int       `json:"attempts"`
	CauseError error     `json:"-"`

	// Error is a string representation of CauseError
	Error string `json:"error"`
}
