package samplebank

import (
	"fmt"

	"github.com/pkg/errors"
)

var ErrFinalized = errors.New("sample bank already finalized")
var ErrNotResolved = errors.New("sample bank samples not resolved")

// ConsistencyError is returned when uses of the same sample disagree, or
// when a resolved tuning does not encode back to an observed one.
type ConsistencyError struct {
	Bank     int
	Offset   uint32
	Field    string
	Previous interface{}
	Current  interface{}
	Detail   string
	Err      error
}

func (err *ConsistencyError) Error() string {
	var msg = fmt.Sprintf("sample bank %d sample at 0x%X: inconsistent %s", err.Bank, err.Offset, err.Field)

	if err.Previous != nil || err.Current != nil {
		msg = msg + fmt.Sprintf(", previously %v, now %v", err.Previous, err.Current)
	}

	if err.Detail != "" {
		msg = msg + ": " + err.Detail
	} else if err.Err != nil {
		msg = msg + ": " + err.Err.Error()
	}

	return msg
}

func (err *ConsistencyError) Unwrap() error {
	return err.Err
}
