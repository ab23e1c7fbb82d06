package scheduler

import "errors"

// Item is one unit of work queued under a bucket.
type Item struct {
	ID           string            `json:"id"`
	Payload      string            `json:"payload"`
	Headers      map[string]string `json:"headers,omitempty"`
	EnqueuedAtMs int64             `json:"enqueuedAtMs"`
}

// BucketInfo describes one bucket in service order.
type BucketInfo struct {
	Bucket   string `json:"bucket"`
	Depth    int    `json:"depth"`
	Position int    `json:"position"`
}

// Stats summarizes a queue.
type Stats struct {
	Items   int `json:"items"`
	Buckets int `json:"buckets"`
}

// ErrInvalidName reports a namespace, queue or bucket name the service
// refuses to address.
var ErrInvalidName = errors.New("scheduler: invalid name")
