// Package geo resolves node addresses to country flag emoji via an MMDB
// geolocation database.
package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Resolver wraps an MMDB country database. A nil *Resolver is valid and
// behaves like an always-miss database, so callers can thread an optional
// resolver through without guarding every lookup.
type Resolver struct {
	db *geoip2.Reader
}

// Open loads the MMDB file at path. An empty path yields a nil Resolver
// with lookups disabled.
func Open(path string) (*Resolver, error) {
	if path == "" {
		return nil, nil
	}
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &Resolver{db: db}, nil
}

func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Flag returns the country flag emoji for addr, or "" when the country
// cannot be determined.
func (r *Resolver) Flag(addr string) string {
	return FlagEmoji(r.CountryCode(addr))
}

// CountryCode looks up the ISO 3166-1 code for addr. addr may be a bare IP
// or host:port. Private, unparsable and unknown addresses return "".
func (r *Resolver) CountryCode(addr string) string {
	if r == nil || r.db == nil {
		return ""
	}
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
		return ""
	}
	rec, err := r.db.Country(ip)
	if err != nil {
		return ""
	}
	return rec.Country.IsoCode
}

// FlagEmoji converts a two-letter country code to its flag emoji by
// shifting each letter into the regional indicator range. Anything that is
// not exactly two ASCII letters returns "".
func FlagEmoji(code string) string {
	if len(code) != 2 {
		return ""
	}
	var runes [2]rune
	for i := 0; i < 2; i++ {
		c := code[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return ""
		}
		runes[i] = 0x1F1E6 + rune(c-'A')
	}
	return string(runes[:])
}
