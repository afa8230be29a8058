package repository

import "errors"

// Sentinel kinds for snapshot store errors.
var (
	ErrNotFound    = errors.New("snapshot not found")
	ErrStoreClosed = errors.New("store closed")
	ErrConnect     = errors.New("store connect failed")
	ErrCodec       = errors.New("snapshot codec failed")
)
