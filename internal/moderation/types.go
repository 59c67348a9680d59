package moderation

import (
	"math"
	"strings"
)

// Platform identifies the hosting service a source URL belongs to.
type Platform string

const (
	PlatformGeneric   Platform = "generic"
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// Platforms lists every known platform in display order.
func Platforms() []Platform {
	return []Platform{PlatformGeneric, PlatformTikTok, PlatformInstagram, PlatformYouTube}
}

// Request is a single moderation submission.
type Request struct {
	SourceURL string `json:"url"`
}

// AcquiredMedia points at the downloaded media file for one request.
type AcquiredMedia struct {
	LocalPath string   `json:"local_path"`
	Platform  Platform `json:"platform"`
}

// AudioEvidence is the transcript of the spoken track. When Err is set the
// transcript holds a human-readable error marker instead of speech.
type AudioEvidence struct {
	Transcript string `json:"transcript"`
	Err        string `json:"error,omitempty"`
}

// Degraded reports whether transcription failed.
func (a AudioEvidence) Degraded() bool {
	return strings.TrimSpace(a.Err) != ""
}

// SampleFractions are the timeline positions sampled from every video.
var SampleFractions = []float64{0.15, 0.50, 0.85}

// FrameSample is a captured, resized frame. It only lives during visual
// extraction.
type FrameSample struct {
	Fraction float64 `json:"fraction"`
	Index    int     `json:"index"`
	Path     string  `json:"path"`
	Image    []byte  `json:"-"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// VisualReport is the structured description of one sampled frame.
type VisualReport struct {
	Fraction         float64 `json:"fraction"`
	SceneDescription string  `json:"scene_description"`
	OnScreenText     string  `json:"on_screen_text"`
	SafetyFlags      string  `json:"safety_flags"`
	Raw              string  `json:"raw,omitempty"`
}

// Percent returns the timeline position as a whole percentage.
func (r VisualReport) Percent() int {
	return int(math.Round(r.Fraction * 100))
}

// VerdictStatus is the closed set of adjudication outcomes.
type VerdictStatus string

const (
	VerdictApproved VerdictStatus = "APPROVED"
	VerdictRejected VerdictStatus = "REJECTED"
	VerdictUnknown  VerdictStatus = "UNKNOWN"
)

// Valid reports whether s is one of the three known statuses.
func (s VerdictStatus) Valid() bool {
	switch s {
	case VerdictApproved, VerdictRejected, VerdictUnknown:
		return true
	default:
		return false
	}
}

// Verdict is the terminal artifact of a request.
type Verdict struct {
	Status VerdictStatus `json:"status"`
	Reason string        `json:"reason"`
	Raw    string        `json:"raw,omitempty"`
}

// Approved reports whether the verdict lets the video through.
func (v Verdict) Approved() bool {
	return v.Status == VerdictApproved
}
