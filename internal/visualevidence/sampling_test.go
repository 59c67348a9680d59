package visualevidence

import "testing"

func TestFrameIndex(t *testing.T) {
	cases := []struct {
		total    int
		fraction float64
		want     int
	}{
		{100, 0.15, 15},
		{100, 0.50, 50},
		{100, 0.85, 85},
		{20, 0.15, 3},
		{20, 0.85, 17},
		{3, 0.85, 2},
		{1, 0.85, 0},
		{1, 0.15, 0},
		{2, 1.0, 1},
		{0, 0.5, 0},
		{-5, 0.5, 0},
	}
	for _, tc := range cases {
		if got := FrameIndex(tc.total, tc.fraction); got != tc.want {
			t.Errorf("FrameIndex(%d, %v) = %d, want %d", tc.total, tc.fraction, got, tc.want)
		}
	}
}

func TestFrameIndexAlwaysInRange(t *testing.T) {
	for total := 1; total <= 500; total++ {
		for _, fraction := range []float64{0.15, 0.50, 0.85} {
			idx := FrameIndex(total, fraction)
			if idx < 0 || idx >= total {
				t.Fatalf("FrameIndex(%d, %v) = %d out of range", total, fraction, idx)
			}
			if again := FrameIndex(total, fraction); again != idx {
				t.Fatalf("FrameIndex not deterministic for %d", total)
			}
		}
	}
}

func TestScaledHeight(t *testing.T) {
	cases := []struct {
		w, h, target, want int
	}{
		{1080, 1920, 960, 1706},
		{1920, 1080, 960, 540},
		{960, 720, 960, 720},
		{480, 270, 960, 540},
		{10000, 1, 960, 1},
		{0, 100, 960, 0},
		{100, 0, 960, 0},
	}
	for _, tc := range cases {
		if got := ScaledHeight(tc.w, tc.h, tc.target); got != tc.want {
			t.Errorf("ScaledHeight(%d, %d, %d) = %d, want %d", tc.w, tc.h, tc.target, got, tc.want)
		}
	}
}
