package config

// RegionHosts maps region codes to their Yahoo Finance host
var RegionHosts = map[string]string{
	"us": "finance.yahoo.com",    // United States
	"uk": "uk.finance.yahoo.com", // United Kingdom
	"ca": "ca.finance.yahoo.com", // Canada
	"au": "au.finance.yahoo.com", // Australia
	"in": "in.finance.yahoo.com", // India
	"sg": "sg.finance.yahoo.com", // Singapore
}

// DefaultRegion is used when no region, or an unknown one, is configured
const DefaultRegion = "us"

// HostForRegion returns the quote host for a region, falling back to the US site
func HostForRegion(region string) string {
	if host, ok := RegionHosts[region]; ok {
		return host
	}
	return RegionHosts[DefaultRegion]
}
