// Package useragent classifies raw user-agent strings into browser,
// operating system and device category. It is an ordered-token
// matcher, not a full device database: good enough for aggregate
// breakdowns, not for per-device fingerprinting.
package useragent

import "strings"

// UserAgent is the parsed classification of one raw UA string.
type UserAgent struct {
	UserAgent string
	Browser   string
	OS        string
	Device    string
	Bot       bool
}

const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceBot     = "Bot"
	DeviceUnknown = "Unknown"
)

// Token order matters: more specific tokens must come before the
// generic ones they embed (Edge before Chrome, Chrome before Safari,
// iOS before Mac OS).
var browserTokens = []struct{ token, name string }{
	{"edg/", "Edge"},
	{"edge/", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser", "Samsung Internet"},
	{"brave", "Brave"},
	{"vivaldi", "Vivaldi"},
	{"firefox/", "Firefox"},
	{"fxios/", "Firefox"},
	{"crios/", "Chrome"},
	{"chrome/", "Chrome"},
	{"safari/", "Safari"},
	{"msie", "Internet Explorer"},
	{"trident/", "Internet Explorer"},
}

var osTokens = []struct{ token, name string }{
	{"windows phone", "Windows Phone"},
	{"windows", "Windows"},
	{"iphone", "iOS"},
	{"ipad", "iOS"},
	{"ipod", "iOS"},
	{"mac os x", "macOS"},
	{"macintosh", "macOS"},
	{"android", "Android"},
	{"cros", "ChromeOS"},
	{"linux", "Linux"},
	{"freebsd", "FreeBSD"},
}

var botTokens = []string{
	"bot",
	"crawler",
	"spider",
	"slurp",
	"curl/",
	"wget/",
	"python-requests",
	"go-http-client",
	"headlesschrome",
	"lighthouse",
	"pingdom",
	"uptimerobot",
}

// Parse classifies a raw user-agent string. Unknown fields come back
// as "Unknown"; an empty input classifies as Unknown everything.
func Parse(raw string) UserAgent {
	ua := UserAgent{
		UserAgent: raw,
		Browser:   "Unknown",
		OS:        "Unknown",
		Device:    DeviceUnknown,
	}
	if raw == "" {
		return ua
	}

	lower := strings.ToLower(raw)

	for _, token := range botTokens {
		if strings.Contains(lower, token) {
			ua.Bot = true
			ua.Device = DeviceBot
			return ua
		}
	}

	for _, b := range browserTokens {
		if strings.Contains(lower, b.token) {
			ua.Browser = b.name
			break
		}
	}
	for _, o := range osTokens {
		if strings.Contains(lower, o.token) {
			ua.OS = o.name
			break
		}
	}

	ua.Device = deviceCategory(lower, ua.OS)
	return ua
}

func deviceCategory(lower, os string) string {
	switch {
	case strings.Contains(lower, "ipad"),
		strings.Contains(lower, "tablet"),
		strings.Contains(lower, "android") && !strings.Contains(lower, "mobile"):
		return DeviceTablet
	case strings.Contains(lower, "mobile"),
		strings.Contains(lower, "iphone"),
		strings.Contains(lower, "ipod"),
		os == "Windows Phone":
		return DeviceMobile
	case os == "Windows", os == "macOS", os == "Linux", os == "ChromeOS", os == "FreeBSD":
		return DeviceDesktop
	default:
		return DeviceUnknown
	}
}
