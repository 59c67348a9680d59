package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"clipguard/internal/config"
	"clipguard/internal/services/whisperx"
)

// Requirement defines an external dependency clipguard relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the moderation pipeline shells out to.
func Requirements(cfg *config.Config) []Requirement {
	download := "yt-dlp"
	ffmpeg, ffprobe := "ffmpeg", "ffprobe"
	if cfg != nil {
		download = cfg.Download.Binary
		ffmpeg, ffprobe = cfg.FFmpegBinary(), cfg.FFprobeBinary()
	}
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     download,
			Description: "Required for media acquisition",
		},
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for audio decoding and frame capture",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Required for frame counting",
		},
		{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Required for WhisperX-driven transcription",
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the required (non-optional) dependencies that are unavailable.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, status := range statuses {
		if !status.Available && !status.Optional {
			missing = append(missing, status)
		}
	}
	return missing
}
