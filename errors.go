package stoplight

import "errors"

// ErrWouldBlock reports that the socket has no data or buffer space right
// now. It is control flow rather than a failure: the operation is simply
// retried on the next readiness event.
var ErrWouldBlock = errors.New("operation would block")

// ErrPeerClosed reports a zero-length read on an established connection.
// The connection must be torn down; it cannot make further progress.
var ErrPeerClosed = errors.New("peer closed connection")

// ProtocolError reports a malformed frame, such as a header missing one of
// its required fields. It is fatal for the connection that produced it and
// leaves every other connection untouched.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "protocol error: " + e.Reason
}
