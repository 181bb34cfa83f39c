// Package geoip resolves client IPs to ISO country codes using an
// optional GeoLite2 database. When the database file is absent the
// resolver is a no-op; geo enrichment is best effort.
package geoip

import (
	"log/slog"
	"net"
	"os"

	"github.com/oschwald/geoip2-golang"
)

// Resolver wraps a GeoLite2 reader. A nil reader disables lookups.
type Resolver struct {
	reader *geoip2.Reader
	logger *slog.Logger
}

// NewResolver opens the GeoLite2 country database at path. A missing
// or unreadable file disables geo lookups rather than failing startup.
func NewResolver(logger *slog.Logger, path string) *Resolver {
	r := &Resolver{logger: logger}
	if path == "" {
		logger.Debug("GeoIP database path not configured, geo lookups disabled")
		return r
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("GeoLite2 database not found, geo lookups disabled",
			slog.String("path", path),
			slog.String("hint", "Download from https://www.maxmind.com/en/geolite2/signup"))
		return r
	} else if err != nil {
		logger.Warn("Error checking GeoLite2 database file",
			slog.String("path", path),
			slog.Any("error", err))
		return r
	}

	reader, err := geoip2.Open(path)
	if err != nil {
		logger.Error("Failed to open GeoLite2 database",
			slog.String("path", path),
			slog.Any("error", err))
		return r
	}

	logger.Info("GeoLite2 database initialized",
		slog.String("path", path))
	r.reader = reader
	return r
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	return r != nil && r.reader != nil
}

// CountryCode returns the ISO alpha-2 country code for an IP, or ""
// when the database is unavailable or the IP cannot be resolved.
func (r *Resolver) CountryCode(ip string) string {
	if !r.Enabled() {
		return ""
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	country, err := r.reader.Country(parsed)
	if err != nil {
		r.logger.Debug("GeoIP lookup failed",
			slog.String("ip", ip),
			slog.Any("error", err))
		return ""
	}
	return country.Country.IsoCode
}

// Close releases the database reader.
func (r *Resolver) Close() {
	if r.reader != nil {
		r.reader.Close()
		r.reader = nil
	}
}
