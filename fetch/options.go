package fetch

import (
	"time"

	"github.com/rs/zerolog"
)

type options struct {
	timeout   time.Duration
	rate      float64
	userAgent string
	log       zerolog.Logger
}

// Option configures a Client
type Option func(o options) options

// Timeout bounds a whole request, body included
func Timeout(d time.Duration) Option {
	return func(o options) options {
		o.timeout = d
		return o
	}
}

// RateLimit caps outgoing requests per second; 0 disables the limit
func RateLimit(perSecond float64) Option {
	return func(o options) options {
		o.rate = perSecond
		return o
	}
}

// UserAgent overrides the User-Agent header
func UserAgent(ua string) Option {
	return func(o options) options {
		o.userAgent = ua
		return o
	}
}

// Logger sets the logger used for request diagnostics
func Logger(l zerolog.Logger) Option {
	return func(o options) options {
		o.log = l
		return o
	}
}

var defaultOptions = options{
	timeout:   30 * time.Second,
	userAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0",
	log:       zerolog.Nop(),
}
