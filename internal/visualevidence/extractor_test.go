package visualevidence

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"clipguard/internal/media/frames"
	"clipguard/internal/moderation"
)

type fakeSource struct {
	info      frames.VideoInfo
	probeErr  error
	failIndex map[int]bool

	mu       sync.Mutex
	captures []captureCall
}

type captureCall struct {
	index, width, height int
	dest                 string
}

func (f *fakeSource) Probe(context.Context, string) (frames.VideoInfo, error) {
	return f.info, f.probeErr
}

func (f *fakeSource) Capture(_ context.Context, _ string, index, width, height int, dest string) (frames.Frame, error) {
	f.mu.Lock()
	f.captures = append(f.captures, captureCall{index: index, width: width, height: height, dest: dest})
	f.mu.Unlock()
	if f.failIndex[index] {
		return frames.Frame{}, errors.New("seek failed")
	}
	return frames.Frame{Path: dest, Image: []byte(fmt.Sprintf("img-%d", index)), Width: width, Height: height}, nil
}

type fakeCaptioner struct {
	delays map[string]time.Duration
	fail   map[string]bool
	panics map[string]bool
}

func (f *fakeCaptioner) Caption(ctx context.Context, image []byte) (string, error) {
	key := string(image)
	if f.panics[key] {
		panic("captioner bug")
	}
	if d := f.delays[key]; d > 0 {
		time.Sleep(d)
	}
	if f.fail[key] {
		return "", errors.New("model unavailable")
	}
	return "CENA: frame " + key + "\nTEXTO: Sem texto\nALERTA: nenhum", nil
}

func media() moderation.AcquiredMedia {
	return moderation.AcquiredMedia{LocalPath: "/work/media.mp4", Platform: moderation.PlatformGeneric}
}

func TestExtractSamplesThreeFramesInOrder(t *testing.T) {
	src := &fakeSource{info: frames.VideoInfo{FrameCount: 100, Width: 1080, Height: 1920}}
	capt := &fakeCaptioner{delays: map[string]time.Duration{"img-15": 30 * time.Millisecond}}
	ext := NewExtractor(src, capt, Config{Concurrency: 3}, nil)
	workDir := t.TempDir()

	reports := ext.Extract(context.Background(), media(), workDir)
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	want := []float64{0.15, 0.50, 0.85}
	for i, report := range reports {
		if report.Fraction != want[i] {
			t.Fatalf("report %d has fraction %v, want %v", i, report.Fraction, want[i])
		}
	}
	if reports[0].SceneDescription != "frame img-15" {
		t.Fatalf("unexpected first scene %q", reports[0].SceneDescription)
	}

	if len(src.captures) != 3 {
		t.Fatalf("expected 3 captures, got %d", len(src.captures))
	}
	seen := map[int]captureCall{}
	for _, c := range src.captures {
		seen[c.index] = c
	}
	for i, idx := range []int{15, 50, 85} {
		call, ok := seen[idx]
		if !ok {
			t.Fatalf("frame %d not captured", idx)
		}
		if call.width != 960 || call.height != 1706 {
			t.Fatalf("unexpected size %dx%d", call.width, call.height)
		}
		if call.dest != filepath.Join(workDir, "frames", frames.FileName(i)) {
			t.Fatalf("unexpected dest %q", call.dest)
		}
	}
}

func TestExtractOmitsFailedFrames(t *testing.T) {
	src := &fakeSource{
		info:      frames.VideoInfo{FrameCount: 100, Width: 1920, Height: 1080},
		failIndex: map[int]bool{50: true},
	}
	capt := &fakeCaptioner{fail: map[string]bool{"img-85": true}}
	reports := NewExtractor(src, capt, Config{}, nil).Extract(context.Background(), media(), t.TempDir())
	if len(reports) != 1 || reports[0].Fraction != 0.15 {
		t.Fatalf("expected only the 15%% frame, got %+v", reports)
	}
}

func TestExtractRecoversCaptionerPanic(t *testing.T) {
	src := &fakeSource{info: frames.VideoInfo{FrameCount: 100, Width: 1080, Height: 1920}}
	capt := &fakeCaptioner{panics: map[string]bool{"img-50": true}}
	reports := NewExtractor(src, capt, Config{Concurrency: 3}, nil).Extract(context.Background(), media(), t.TempDir())
	if len(reports) != 2 || reports[0].Fraction != 0.15 || reports[1].Fraction != 0.85 {
		t.Fatalf("expected the panicking frame to be omitted, got %+v", reports)
	}
}

func TestExtractUnreadableMediaYieldsEmpty(t *testing.T) {
	src := &fakeSource{probeErr: errors.New("moov atom not found")}
	reports := NewExtractor(src, &fakeCaptioner{}, Config{}, nil).Extract(context.Background(), media(), t.TempDir())
	if reports == nil || len(reports) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", reports)
	}
	if len(src.captures) != 0 {
		t.Fatal("no frames should be captured for unreadable media")
	}
}

func TestExtractZeroDimensionsYieldsEmpty(t *testing.T) {
	src := &fakeSource{info: frames.VideoInfo{FrameCount: 10}}
	reports := NewExtractor(src, &fakeCaptioner{}, Config{}, nil).Extract(context.Background(), media(), t.TempDir())
	if len(reports) != 0 {
		t.Fatalf("expected no reports, got %d", len(reports))
	}
}

func TestExtractSingleFrameVideo(t *testing.T) {
	src := &fakeSource{info: frames.VideoInfo{FrameCount: 1, Width: 640, Height: 480}}
	reports := NewExtractor(src, &fakeCaptioner{}, Config{}, nil).Extract(context.Background(), media(), t.TempDir())
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	for _, c := range src.captures {
		if c.index != 0 {
			t.Fatalf("single-frame video must sample index 0, got %d", c.index)
		}
	}
}
