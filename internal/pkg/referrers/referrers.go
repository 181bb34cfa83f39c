package referrers

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Source buckets for traffic classification.
const (
	SourceDirect   = "Direct"
	SourceOrganic  = "Organic"
	SourceSocial   = "Social"
	SourceEmail    = "Email"
	SourceReferral = "Referral"
)

// Sources lists all buckets in classification-precedence order.
var Sources = []string{SourceDirect, SourceOrganic, SourceSocial, SourceEmail, SourceReferral}

// Search-engine substrings matched against referrer URLs.
var searchEngines = []string{
	"google.",
	"bing.com",
	"duckduckgo.com",
	"yahoo.",
	"baidu.com",
	"yandex.",
	"ecosia.org",
	"kagi.com",
	"startpage.com",
	"qwant.com",
	"search.brave.com",
}

// Social-platform substrings matched against referrer URLs.
var socialPlatforms = []string{
	"facebook.com",
	"fb.com",
	"twitter.com",
	"x.com",
	"t.co",
	"instagram.com",
	"linkedin.com",
	"lnkd.in",
	"tiktok.com",
	"pinterest.",
	"reddit.com",
	"threads.net",
	"bsky.app",
	"mastodon.",
	"youtube.com",
	"youtu.be",
	"snapchat.com",
	"whatsapp.com",
	"t.me",
	"telegram.org",
}

// Classify maps a raw referrer string to exactly one source bucket.
// Matching is case-insensitive substring, first match wins, in the
// order Direct, Organic, Social, Email, Referral.
func Classify(referrer string) string {
	ref := strings.ToLower(strings.TrimSpace(referrer))
	if ref == "" {
		return SourceDirect
	}
	for _, engine := range searchEngines {
		if strings.Contains(ref, engine) {
			return SourceOrganic
		}
	}
	for _, platform := range socialPlatforms {
		if strings.Contains(ref, platform) {
			return SourceSocial
		}
	}
	if strings.Contains(ref, "mailto:") || strings.Contains(ref, "email") {
		return SourceEmail
	}
	return SourceReferral
}

// Common referrer hostnames mapped to friendly display names used in
// the referrer report.
var knownReferrers = map[string]string{
	"google.com":     "Google",
	"google.co.uk":   "Google",
	"google.de":      "Google",
	"google.fr":      "Google",
	"bing.com":       "Bing",
	"duckduckgo.com": "DuckDuckGo",
	"yahoo.com":      "Yahoo",
	"baidu.com":      "Baidu",
	"ecosia.org":     "Ecosia",
	"kagi.com":       "Kagi",

	"x.com":           "X/Twitter",
	"twitter.com":     "X/Twitter",
	"t.co":            "X/Twitter",
	"facebook.com":    "Facebook",
	"fb.com":          "Facebook",
	"l.facebook.com":  "Facebook",
	"instagram.com":   "Instagram",
	"l.instagram.com": "Instagram",
	"linkedin.com":    "LinkedIn",
	"lnkd.in":         "LinkedIn",
	"tiktok.com":      "TikTok",
	"pinterest.com":   "Pinterest",
	"reddit.com":      "Reddit",
	"old.reddit.com":  "Reddit",
	"threads.net":     "Threads",
	"bsky.app":        "Bluesky",
	"youtube.com":     "YouTube",
	"youtu.be":        "YouTube",
	"t.me":            "Telegram",
	"telegram.org":    "Telegram",

	"news.ycombinator.com": "Hacker News",
	"hn.algolia.com":       "Hacker News",
	"lobste.rs":            "Lobsters",
	"producthunt.com":      "Product Hunt",
	"dev.to":               "DEV Community",
	"medium.com":           "Medium",
	"substack.com":         "Substack",
	"github.com":           "GitHub",
	"gitlab.com":           "GitLab",
	"stackoverflow.com":    "Stack Overflow",

	"mail.google.com":    "Gmail",
	"outlook.live.com":   "Outlook",
	"outlook.office.com": "Outlook",
	"mail.yahoo.com":     "Yahoo Mail",
	"mail.proton.me":     "Proton Mail",

	"bit.ly":      "Bitly",
	"tinyurl.com": "TinyURL",
}

var titleCaser = cases.Title(language.English, cases.NoLower)

// FriendlyName returns a display name for a referrer hostname. Unknown
// hostnames come back with "www." stripped and the first word
// capitalized.
func FriendlyName(hostname string) string {
	hostname = strings.ToLower(hostname)

	if name, ok := knownReferrers[hostname]; ok {
		return name
	}

	if strings.HasPrefix(hostname, "www.") {
		withoutWWW := hostname[4:]
		if name, ok := knownReferrers[withoutWWW]; ok {
			return name
		}
		hostname = withoutWWW
	}

	for domain, name := range knownReferrers {
		if strings.HasSuffix(hostname, "."+domain) {
			return name
		}
	}

	return titleCaser.String(hostname)
}
