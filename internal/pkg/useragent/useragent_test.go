package useragent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sitepulse/internal/pkg/useragent"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		browser string
		os      string
		device  string
	}{
		{
			"chrome on windows",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			"Chrome", "Windows", useragent.DeviceDesktop,
		},
		{
			"edge declares chrome too",
			"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36 Edg/126.0.0.0",
			"Edge", "Windows", useragent.DeviceDesktop,
		},
		{
			"safari on mac",
			"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
			"Safari", "macOS", useragent.DeviceDesktop,
		},
		{
			"firefox on linux",
			"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
			"Firefox", "Linux", useragent.DeviceDesktop,
		},
		{
			"chrome on iphone",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) CriOS/126.0.0.0 Mobile/15E148 Safari/604.1",
			"Chrome", "iOS", useragent.DeviceMobile,
		},
		{
			"android phone",
			"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Mobile Safari/537.36",
			"Chrome", "Android", useragent.DeviceMobile,
		},
		{
			"android tablet omits mobile",
			"Mozilla/5.0 (Linux; Android 14; SM-X910) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
			"Chrome", "Android", useragent.DeviceTablet,
		},
		{
			"ipad",
			"Mozilla/5.0 (iPad; CPU OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
			"Safari", "iOS", useragent.DeviceTablet,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ua := useragent.Parse(tc.raw)
			assert.Equal(t, tc.browser, ua.Browser)
			assert.Equal(t, tc.os, ua.OS)
			assert.Equal(t, tc.device, ua.Device)
			assert.False(t, ua.Bot)
		})
	}
}

func TestParseBots(t *testing.T) {
	bots := []string{
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
		"curl/8.4.0",
		"python-requests/2.31.0",
		"Mozilla/5.0 (X11; Linux x86_64) HeadlessChrome/126.0.0.0",
	}
	for _, raw := range bots {
		ua := useragent.Parse(raw)
		assert.True(t, ua.Bot, "expected bot: %s", raw)
		assert.Equal(t, useragent.DeviceBot, ua.Device)
	}
}

func TestParseEmpty(t *testing.T) {
	ua := useragent.Parse("")
	assert.Equal(t, "Unknown", ua.Browser)
	assert.Equal(t, "Unknown", ua.OS)
	assert.Equal(t, useragent.DeviceUnknown, ua.Device)
	assert.False(t, ua.Bot)
}
