// Package mains resolves the local electrical mains frequency, used to place
// hum notch filters, from the system timezone.
package mains

import (
	"strings"
	"sync"

	tz "github.com/medama-io/go-timezone-country"
	"github.com/thlib/go-timezone-local/tzlocal"
)

// Mains frequencies in Hz
const (
	Hz50 = 50
	Hz60 = 60

	// Fallback is used when the timezone or its country is unknown
	Fallback = Hz50
)

// Valid reports whether hz is a mains frequency
func Valid(hz int) bool {
	return hz == Hz50 || hz == Hz60
}

var (
	countryOf      func(timezone string) (string, error)
	countryMapOnce sync.Once
)

// lookupCountry maps an IANA timezone to a country name. The map is built
// once per process.
func lookupCountry(timezone string) (string, bool) {
	countryMapOnce.Do(func() {
		if m, err := tz.NewTimezoneCountryMap(); err == nil {
			countryOf = m.GetCountry
		}
	})
	if countryOf == nil {
		return "", false
	}
	country, err := countryOf(timezone)
	if err != nil || country == "" {
		return "", false
	}
	return country, true
}

// Frequency returns the mains frequency for the host timezone
func Frequency() int {
	timezone, err := tzlocal.RuntimeTZ()
	if err != nil {
		return Fallback
	}
	return ForTimezone(timezone)
}

// ForTimezone returns the mains frequency for an IANA timezone name
func ForTimezone(timezone string) int {
	if timezone == "UTC" || timezone == "GMT" || strings.HasPrefix(timezone, "Etc/") {
		return Fallback
	}
	country, ok := lookupCountry(timezone)
	if !ok {
		return Fallback
	}
	return ForCountry(country)
}

// ForCountry returns the mains frequency for a country name. Japan runs both;
// the 50 Hz east, including Tokyo, wins.
func ForCountry(country string) int {
	if _, ok := sixtyHertz[country]; ok {
		return Hz60
	}
	return Fallback
}

// sixtyHertz holds the countries on 60 Hz mains; everywhere else is 50 Hz.
// Brazil and Saudi Arabia are mixed but predominantly 60 Hz.
var sixtyHertz = func() map[string]struct{} {
	regions := [][]string{
		{"United States", "Canada", "Mexico"},
		{"Belize", "Costa Rica", "El Salvador", "Guatemala", "Honduras", "Nicaragua", "Panama"},
		{"Bahamas", "Barbados", "Cayman Islands", "Cuba", "Dominican Republic", "Haiti",
			"Jamaica", "Puerto Rico", "Trinidad and Tobago", "U.S. Virgin Islands"},
		{"Brazil", "Colombia", "Ecuador", "Guyana", "Peru", "Suriname", "Venezuela"},
		{"South Korea", "Taiwan", "Philippines", "Saudi Arabia"},
		{"Guam", "American Samoa", "Marshall Islands", "Micronesia", "Palau"},
	}
	set := make(map[string]struct{})
	for _, region := range regions {
		for _, country := range region {
			set[country] = struct{}{}
		}
	}
	return set
}()
