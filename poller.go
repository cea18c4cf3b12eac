package stoplight

// Interest is the set of readiness directions a connection is registered
// for with the multiplexer.
type Interest uint8

const (
	// ReadInterest requests readable notifications.
	ReadInterest Interest = 1 << iota
	// WriteInterest requests writable notifications.
	WriteInterest
)

// ReadWriteInterest requests notifications for both directions.
const ReadWriteInterest = ReadInterest | WriteInterest

// Poller is the readiness multiplexer connections register with. The
// multiplexer may notify spuriously; handlers tolerate wakeups with
// nothing to do.
type Poller interface {
	// Register adds a socket with the given interest set.
	Register(fd int, interest Interest) error
	// Modify replaces the interest set of a registered socket.
	Modify(fd int, interest Interest) error
	// Unregister removes a socket from the multiplexer.
	Unregister(fd int) error
}
