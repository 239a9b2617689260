package stock

import (
	"quotescraper/config"
	"quotescraper/fetch"

	"github.com/rs/zerolog"
)

type options struct {
	fetcher  fetch.Fetcher
	template string
	host     string
	log      zerolog.Logger
}

// Option configures a Quote
type Option func(o options) options

// WithFetcher replaces the default HTTP client
func WithFetcher(f fetch.Fetcher) Option {
	return func(o options) options {
		o.fetcher = f
		return o
	}
}

// WithURLTemplate sets the quote URL; {host} and {symbol} are expanded
func WithURLTemplate(template string) Option {
	return func(o options) options {
		o.template = template
		return o
	}
}

// WithRegion selects the regional site, see config.RegionHosts
func WithRegion(region string) Option {
	return func(o options) options {
		o.host = config.HostForRegion(region)
		return o
	}
}

// WithLogger sets the logger for fetch failures and field diagnostics
func WithLogger(l zerolog.Logger) Option {
	return func(o options) options {
		o.log = l
		return o
	}
}

func buildOptions(os []Option) options {
	opts := options{
		template: config.DefaultURLTemplate,
		host:     config.HostForRegion(config.DefaultRegion),
		log:      zerolog.Nop(),
	}
	for _, o := range os {
		opts = o(opts)
	}
	if opts.fetcher == nil {
		opts.fetcher = fetch.NewClient(fetch.Logger(opts.log))
	}
	return opts
}
