package protocol

import "fmt"

// DecodeError reports a malformed inbound record. It is scoped to that one
// record; the reader should discard it and keep going.
type DecodeError struct {
	Record []byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding record: %s", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func decodeErr(record []byte, format string, args ...any) *DecodeError {
	return &DecodeError{Record: record, Err: fmt.Errorf(format, args...)}
}
