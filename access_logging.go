package proxyvars

import "time"

// AccessEvent describes a single forwarded operation for logging.
type AccessEvent struct {
	Op       string
	Proxy    string
	Engine   string
	Expr     string
	Duration time.Duration
	Err      error
}

// AccessLogger records proxy access events.
type AccessLogger interface {
	LogAccess(AccessEvent)
}

// AccessLoggerFunc adapts a function to AccessLogger.
type AccessLoggerFunc func(AccessEvent)

// LogAccess implements AccessLogger.
func (f AccessLoggerFunc) LogAccess(event AccessEvent) {
	if f != nil {
		f(event)
	}
}

type noopAccessLogger struct{}

func (noopAccessLogger) LogAccess(AccessEvent) {}

// WithAccessLogger attaches an access logger to the proxy.
func WithAccessLogger[T any](logger AccessLogger) ProxyOption[T] {
	return func(cfg *proxyConfig[T]) {
		if logger == nil {
			cfg.logger = noopAccessLogger{}
			return
		}
		cfg.logger = logger
	}
}
