package session

import (
	"errors"
	"fmt"
)

// ErrOutboxFull is reported when a connection falls too far behind.
var ErrOutboxFull = errors.New("outbound queue full")

// ErrRecordTooLong is reported for an inbound line longer than the
// configured maximum. Only that line is dropped.
var ErrRecordTooLong = errors.New("record exceeds max_line_bytes")

// TransportError is a read or write failure on a connection's byte stream.
// It ends only the session that owns the connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
