package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes size bytes of filler to path, creating parent
// directories. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x42}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteCookieBundle writes a Netscape cookie file for domain, the format
// yt-dlp reads through --cookies.
func WriteCookieBundle(t testing.TB, path, domain string) {
	t.Helper()

	domain = strings.TrimPrefix(strings.TrimSpace(domain), ".")
	lines := []string{
		"# Netscape HTTP Cookie File",
		strings.Join([]string{"." + domain, "TRUE", "/", "TRUE", "2147483647", "sessionid", "test-session"}, "\t"),
		"",
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600); err != nil {
		t.Fatalf("write cookie bundle %s: %v", path, err)
	}
}
