package ytdlp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"clipguard/internal/services"
)

type fakeExecutor struct {
	calls  [][]string
	stdout string
	stderr string
	err    error
	write  bool
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{binary}, args...))
	if f.write {
		idx := slices.Index(args, "--output")
		template := args[idx+1]
		path := strings.Replace(template, "%(ext)s", "mp4", 1)
		if err := os.WriteFile(path, []byte("video"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return []byte(f.stdout), []byte(f.stderr), f.err
}

func TestDownloadBuildsArgsAndReturnsPath(t *testing.T) {
	dir := t.TempDir()
	exec := &fakeExecutor{write: true}
	client := New(Config{UserAgent: "Mozilla/5.0 Test", SkipCertCheck: true}, WithExecutor(exec))

	path, err := client.Download(context.Background(), Request{
		URL:        "https://www.tiktok.com/@user/video/1",
		OutputDir:  dir,
		CookieFile: "/cookies/cookies_tiktok.txt",
	})
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if path != filepath.Join(dir, "media.mp4") {
		t.Fatalf("unexpected path %q", path)
	}

	args := exec.calls[0]
	if args[0] != DefaultBinary {
		t.Fatalf("expected default binary, got %q", args[0])
	}
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"--format best[ext=mp4]",
		"--no-check-certificates",
		"--add-header User-Agent:Mozilla/5.0 Test",
		"--cookies /cookies/cookies_tiktok.txt",
		"-- https://www.tiktok.com/@user/video/1",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in %q", want, joined)
		}
	}
}

func TestDownloadOmitsOptionalFlags(t *testing.T) {
	exec := &fakeExecutor{write: true}
	client := New(Config{}, WithExecutor(exec))
	if _, err := client.Download(context.Background(), Request{URL: "https://example.com/v", OutputDir: t.TempDir()}); err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	for _, flag := range []string{"--cookies", "--no-check-certificates", "--add-header"} {
		if slices.Contains(exec.calls[0], flag) {
			t.Fatalf("did not expect %s in %v", flag, exec.calls[0])
		}
	}
}

func TestDownloadMissingOutputIsNotFound(t *testing.T) {
	client := New(Config{}, WithExecutor(&fakeExecutor{}))
	_, err := client.Download(context.Background(), Request{URL: "https://example.com/v", OutputDir: t.TempDir()})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found marker, got %v", err)
	}
}

func TestDownloadClassifiesFailures(t *testing.T) {
	cases := []struct {
		name   string
		stderr string
		marker error
	}{
		{"transient", "ERROR: Unable to download: HTTP Error 503: Service Unavailable", services.ErrTransient},
		{"reset", "ERROR: [Errno 104] Connection reset by peer", services.ErrTransient},
		{"permanent", "ERROR: Unsupported URL: https://example.com/v", services.ErrExternalTool},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &fakeExecutor{stderr: "WARNING: x\n" + tc.stderr + "\n", err: errors.New("exit status 1")}
			client := New(Config{}, WithExecutor(exec))
			_, err := client.Download(context.Background(), Request{URL: "https://example.com/v", OutputDir: t.TempDir()})
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v, got %v", tc.marker, err)
			}
			if !strings.Contains(err.Error(), tc.stderr) {
				t.Fatalf("expected stderr detail in %v", err)
			}
		})
	}
}

func TestDownloadValidatesRequest(t *testing.T) {
	client := New(Config{}, WithExecutor(&fakeExecutor{}))
	if _, err := client.Download(context.Background(), Request{OutputDir: t.TempDir()}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	client := New(Config{Binary: "/usr/local/bin/yt-dlp"}, WithExecutor(&fakeExecutor{stdout: "2025.01.15\n"}))
	version, err := client.Version(context.Background())
	if err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
	if version != "2025.01.15" {
		t.Fatalf("unexpected version %q", version)
	}
}
