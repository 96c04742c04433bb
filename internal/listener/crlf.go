package listener

import (
	"bytes"
	"io"
)

// crlfConn wraps a stream and converts \n to \r\n on writes.
// Telnet and SSH terminals expect CRLF line endings.
type crlfConn struct {
	rwc io.ReadWriteCloser
}

func newCRLFConn(rwc io.ReadWriteCloser) io.ReadWriteCloser {
	return &crlfConn{rwc: rwc}
}

func (c *crlfConn) Read(p []byte) (int, error) {
	n, err := c.rwc.Read(p)
	if n > 0 {
		// Normalize line endings: \r\n → \n, then standalone \r → \n.
		// Telnet sends \r\n, SSH with a PTY sends just \r.
		data := bytes.ReplaceAll(p[:n], []byte("\r\n"), []byte("\n"))
		data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
		n = copy(p, data)
	}
	return n, err
}

func (c *crlfConn) Write(p []byte) (int, error) {
	converted := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.rwc.Write(converted)
	// Return the original length so callers aren't confused by the size change
	return len(p), err
}

func (c *crlfConn) Close() error {
	return c.rwc.Close()
}
