package ffprobe

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	NBFrames     string `json:"nb_frames"`
	AvgFrameRate string `json:"avg_frame_rate"`
	RFrameRate   string `json:"r_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`

	Tags         map[string]string `json:"tags"`
	SideDataList []SideData        `json:"side_data_list"`
}

// SideData is one entry of a stream's side_data_list.
type SideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Parse decodes raw ffprobe JSON output.
func Parse(data []byte) (Result, error) {
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStream returns the first video stream, skipping attached cover art
// which ffprobe also reports as video.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "video") {
			continue
		}
		if stream.Width <= 0 || stream.Height <= 0 {
			continue
		}
		switch strings.ToLower(stream.CodecName) {
		case "mjpeg", "png":
			if stream.NBFrames == "1" {
				continue
			}
		}
		return stream, true
	}
	return Stream{}, false
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, or 0 when unavailable.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

// FrameCount returns the number of frames in the stream. When the container
// does not record nb_frames the count is estimated from duration and frame
// rate. Zero means the count is unknown.
func (s Stream) FrameCount(containerDuration float64) int {
	if n, err := strconv.Atoi(strings.TrimSpace(s.NBFrames)); err == nil && n > 0 {
		return n
	}
	duration := parseFloat(s.Duration)
	if math.IsNaN(duration) || duration <= 0 {
		duration = containerDuration
	}
	if math.IsNaN(duration) || duration <= 0 {
		return 0
	}
	rate := ParseRate(s.AvgFrameRate)
	if rate <= 0 {
		rate = ParseRate(s.RFrameRate)
	}
	if rate <= 0 {
		return 0
	}
	return int(math.Round(duration * rate))
}

// Rotation returns the display rotation in degrees, normalized to
// [0, 360). Display matrix side data wins over the legacy rotate tag.
func (s Stream) Rotation() int {
	degrees := 0.0
	found := false
	for _, sd := range s.SideDataList {
		if strings.EqualFold(sd.SideDataType, "Display Matrix") {
			degrees, found = sd.Rotation, true
			break
		}
	}
	if !found {
		if tag, ok := s.Tags["rotate"]; ok {
			if v, err := strconv.ParseFloat(strings.TrimSpace(tag), 64); err == nil {
				degrees = v
			}
		}
	}
	r := int(math.Round(degrees)) % 360
	if r < 0 {
		r += 360
	}
	return r
}

// DisplaySize returns width and height as decoded frames appear after
// ffmpeg applies the stream rotation.
func (s Stream) DisplaySize() (int, int) {
	switch s.Rotation() {
	case 90, 270:
		return s.Height, s.Width
	}
	return s.Width, s.Height
}

// ParseRate converts an ffprobe rational such as "30000/1001" to a float.
func ParseRate(value string) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	num, den, found := strings.Cut(value, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" || cleaned == "N/A" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
