package fetch

import (
	"net/url"
	"strings"
)

// BuildURL expands the {host} and {symbol} placeholders of a quote URL template
func BuildURL(template, host, symbol string) string {
	return strings.NewReplacer(
		"{host}", host,
		"{symbol}", url.PathEscape(symbol),
	).Replace(template)
}
