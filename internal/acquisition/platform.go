package acquisition

import (
	"net/url"
	"path/filepath"
	"strings"

	"clipguard/internal/moderation"
)

// hostSuffixes maps registrable host suffixes to platforms. Order matters
// only for readability; suffixes do not overlap.
var hostSuffixes = []struct {
	suffix   string
	platform moderation.Platform
}{
	{"tiktok.com", moderation.PlatformTikTok},
	{"instagram.com", moderation.PlatformInstagram},
	{"youtube.com", moderation.PlatformYouTube},
	{"youtu.be", moderation.PlatformYouTube},
}

// cookieFiles names the Netscape cookie bundle used for each platform that
// needs authentication.
var cookieFiles = map[moderation.Platform]string{
	moderation.PlatformTikTok:    "cookies_tiktok.txt",
	moderation.PlatformInstagram: "cookies_instagram.txt",
}

// DetectPlatform classifies rawURL by host. Unparseable or unknown hosts are
// generic.
func DetectPlatform(rawURL string) moderation.Platform {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return moderation.PlatformGeneric
	}
	host := strings.TrimSuffix(strings.ToLower(parsed.Hostname()), ".")
	for _, entry := range hostSuffixes {
		if host == entry.suffix || strings.HasSuffix(host, "."+entry.suffix) {
			return entry.platform
		}
	}
	return moderation.PlatformGeneric
}

// CookieFileName returns the cookie bundle name for platform, if any.
func CookieFileName(platform moderation.Platform) (string, bool) {
	name, ok := cookieFiles[platform]
	return name, ok
}

// CookiePath resolves the cookie bundle for platform under dir.
func CookiePath(dir string, platform moderation.Platform) (string, bool) {
	name, ok := CookieFileName(platform)
	if !ok || strings.TrimSpace(dir) == "" {
		return "", false
	}
	return filepath.Join(dir, name), true
}
