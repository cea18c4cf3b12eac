package stoplight

// defaultChunkSize is how many bytes one readiness event may pull off the
// socket in a single best-effort read.
const defaultChunkSize = 4096

// options holds the configuration shared by server- and client-side
// connections.
type options struct {
	responder Responder
	logger    Logger

	chunkSize int // size of one best-effort socket read
}

// Option configures connections created by the server or client.
type Option func(*options)

// ResponderOption sets the business-logic collaborator that answers JSON
// requests. When unset, the stubbed status responder is used.
func ResponderOption(r Responder) Option {
	return func(o *options) {
		o.responder = r
	}
}

// LoggerOption sets the logger. When unset, the default slog logger is used.
func LoggerOption(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// ChunkSizeOption sets the per-read chunk size. Values smaller than one
// fall back to the default.
func ChunkSizeOption(size int) Option {
	return func(o *options) {
		o.chunkSize = size
	}
}

// checkOptions fills in defaults for anything left unset.
func checkOptions(opts *options) {
	if opts.responder == nil {
		opts.responder = StatusResponder()
	}

	if opts.logger == nil {
		opts.logger = defaultLogger()
	}

	if opts.chunkSize <= 0 {
		opts.chunkSize = defaultChunkSize
	}
}
