package store

import "errors"

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateKey   = errors.New("already exists")
	// ErrRunFinished is returned when writing to a run that is already done.
	ErrRunFinished = errors.New("screening run already finished")
)
