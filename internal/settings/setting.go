package settings

import (
	"strings"

	"gorm.io/gorm"
)

const (
	KeyExcludedIPs = "excluded_ips"
)

// Setting is a simple key-value pair for instance-wide configuration.
type Setting struct {
	ID    uint   `gorm:"primarykey"`
	Key   string `gorm:"uniqueIndex;not null"`
	Value string `gorm:"not null"`
}

// Get returns the value for a key, or "" when unset.
func Get(db *gorm.DB, key string) (string, error) {
	var s Setting
	err := db.Where("key = ?", key).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Value, nil
}

// Set upserts a key-value pair.
func Set(db *gorm.DB, key, value string) error {
	return db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value).Error
}

// GetExcludedIPs returns the configured excluded IPs as a slice.
// The value is stored as a comma-separated list.
func GetExcludedIPs(db *gorm.DB) ([]string, error) {
	raw, err := Get(db, KeyExcludedIPs)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ips := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ips = append(ips, trimmed)
		}
	}
	return ips, nil
}

// SetExcludedIPs stores the excluded IP list.
func SetExcludedIPs(db *gorm.DB, ips []string) error {
	cleaned := make([]string, 0, len(ips))
	for _, ip := range ips {
		if trimmed := strings.TrimSpace(ip); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return Set(db, KeyExcludedIPs, strings.Join(cleaned, ","))
}

// IsIPExcluded reports whether the given IP is on the exclusion list.
func IsIPExcluded(db *gorm.DB, ip string) (bool, error) {
	if ip == "" {
		return false, nil
	}
	ips, err := GetExcludedIPs(db)
	if err != nil {
		return false, err
	}
	for _, excluded := range ips {
		if excluded == ip {
			return true, nil
		}
	}
	return false, nil
}
